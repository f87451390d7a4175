package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClusvcadmController_Run tests command execution success and failure
func TestClusvcadmController_Run(t *testing.T) {
	controller := NewClusvcadmController(nil)

	controller.command = "true"
	assert.NoError(t, controller.run(context.Background(), "-e", "webserver"))

	controller.command = "false"
	err := controller.run(context.Background(), "-e", "webserver")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false -e webserver")
}

// TestClusvcadmController_MissingBinary tests the command-not-found path
func TestClusvcadmController_MissingBinary(t *testing.T) {
	controller := NewClusvcadmController(nil)
	controller.command = "definitely-not-a-command"

	err := controller.Start(context.Background(), "webserver")
	require.Error(t, err)
}

// TestClusvcadmController_Arguments tests the argument mapping per method
func TestClusvcadmController_Arguments(t *testing.T) {
	assert.Equal(t, "clusvcadm", NewClusvcadmController(nil).command)
}
