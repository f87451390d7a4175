package cluster

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// clusvcadm is the cluster manager's service administration tool
const clusvcadm = "clusvcadm"

// ClusvcadmController controls cluster services through the clusvcadm
// command line tool on the local node.
type ClusvcadmController struct {
	command string
	log     logrus.FieldLogger
}

// NewClusvcadmController creates a controller shelling out to clusvcadm
func NewClusvcadmController(log logrus.FieldLogger) *ClusvcadmController {
	if log == nil {
		log = logrus.New().WithField("component", "clusvcadm")
	}
	return &ClusvcadmController{command: clusvcadm, log: log}
}

// Start enables the service
func (c *ClusvcadmController) Start(ctx context.Context, service string) error {
	return c.run(ctx, "-e", service)
}

// Stop disables the service
func (c *ClusvcadmController) Stop(ctx context.Context, service string) error {
	return c.run(ctx, "-d", service)
}

// Restart restarts the service on its current owner
func (c *ClusvcadmController) Restart(ctx context.Context, service string) error {
	return c.run(ctx, "-R", service)
}

// Migrate relocates the service to the target node
func (c *ClusvcadmController) Migrate(ctx context.Context, service string, targetNode string) error {
	return c.run(ctx, "-r", service, "-m", targetNode)
}

func (c *ClusvcadmController) run(ctx context.Context, args ...string) error {
	c.log.WithFields(logrus.Fields{"command": c.command, "args": args}).Debug("Running service control command")

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Env = []string{
		"PATH=/usr/bin:/bin:/usr/sbin:/sbin",
		"LANG=C",
		"LC_ALL=C",
	}

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %s: %w", c.command, strings.Join(args, " "), msg, err)
		}
		return fmt.Errorf("%s %s: %w", c.command, strings.Join(args, " "), err)
	}

	return nil
}
