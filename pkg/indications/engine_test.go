package indications

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustermon/cim-provider-kit/pkg/testutil"
	"github.com/clustermon/cim-provider-kit/pkg/types"
)

func nodeInstance(name string, state types.NodeState) *types.Instance {
	path := types.NewObjectPath(types.ClassClusterNode, map[string]string{"Name": name})
	return types.NewInstance(path).Set("Name", name).Set("State", string(state))
}

func serviceInstance(name, owner string) *types.Instance {
	path := types.NewObjectPath(types.ClassClusterService, map[string]string{"Name": name})
	return types.NewInstance(path).Set("Name", name).Set("Owner", owner)
}

// TestEngine_BaselineDeliversNothing tests that the first observation only
// establishes the baseline
func TestEngine_BaselineDeliversNothing(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}

	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})
	assert.Zero(t, sink.Count())
}

// TestEngine_Creation tests creation indications for new instances
func TestEngine_Creation(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})
	e.Observe([]*types.Instance{
		nodeInstance("node01", types.NodeStateMember),
		nodeInstance("node02", types.NodeStateMember),
	})

	inds := sink.Indications()
	require.Len(t, inds, 1)
	assert.Equal(t, types.IndicationCreation, inds[0].Type)
	assert.Equal(t, types.ClassClusterNode, inds[0].Class)
	require.NotNil(t, inds[0].Current)
	assert.Equal(t, "node02", inds[0].Current.GetString("Name"))
	assert.Nil(t, inds[0].Previous)
	assert.NotEmpty(t, inds[0].ID)
}

// TestEngine_Modification tests modification indications carry both states
func TestEngine_Modification(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})
	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateDead)})

	inds := sink.Indications()
	require.Len(t, inds, 1)
	assert.Equal(t, types.IndicationModification, inds[0].Type)
	assert.Equal(t, "dead", inds[0].Current.GetString("State"))
	assert.Equal(t, "member", inds[0].Previous.GetString("State"))
}

// TestEngine_Deletion tests deletion indications for vanished instances
func TestEngine_Deletion(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe([]*types.Instance{serviceInstance("webserver", "node01")})
	e.Observe(nil)

	inds := sink.Indications()
	require.Len(t, inds, 1)
	assert.Equal(t, types.IndicationDeletion, inds[0].Type)
	assert.Nil(t, inds[0].Current)
	require.NotNil(t, inds[0].Previous)
	assert.Equal(t, "webserver", inds[0].Previous.GetString("Name"))
}

// TestEngine_UnchangedInstancesAreSilent tests no indications without change
func TestEngine_UnchangedInstancesAreSilent(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	instances := []*types.Instance{nodeInstance("node01", types.NodeStateMember)}
	e.Observe(instances)
	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})

	assert.Zero(t, sink.Count())
}

// TestEngine_ClassFilter tests that subscriptions only see their class
func TestEngine_ClassFilter(t *testing.T) {
	e := New("cluster-test")
	nodeSink := &testutil.MockIndicationSink{}
	svcSink := &testutil.MockIndicationSink{}

	_, err := e.Subscribe(types.ClassClusterNode, nodeSink.Handler())
	require.NoError(t, err)
	_, err = e.Subscribe(types.ClassClusterService, svcSink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe(nil)
	e.Observe([]*types.Instance{
		nodeInstance("node01", types.NodeStateMember),
		serviceInstance("webserver", "node01"),
	})

	require.Equal(t, 1, nodeSink.Count())
	assert.Equal(t, types.ClassClusterNode, nodeSink.Indications()[0].Class)
	require.Equal(t, 1, svcSink.Count())
	assert.Equal(t, types.ClassClusterService, svcSink.Indications()[0].Class)
}

// TestEngine_SubscriptionLifecycle tests Subscribe/Unsubscribe
func TestEngine_SubscriptionLifecycle(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}

	_, err := e.Subscribe("", nil)
	assert.Error(t, err, "nil handlers are rejected")

	id, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	require.NoError(t, e.Unsubscribe(id))

	err = e.Unsubscribe(id)
	assert.Error(t, err, "double unsubscribe fails")

	e.Enable()
	e.Observe(nil)
	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})
	assert.Zero(t, sink.Count(), "unsubscribed handlers see nothing")
}

// TestEngine_DisableDropsBaseline tests that re-enabling starts fresh
func TestEngine_DisableDropsBaseline(t *testing.T) {
	e := New("cluster-test")
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)

	e.Enable()
	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})

	e.Disable()
	e.Observe([]*types.Instance{nodeInstance("node02", types.NodeStateMember)})
	assert.Zero(t, sink.Count(), "disabled engine delivers nothing")

	e.Enable()
	// First observation after re-enable is a new baseline
	e.Observe([]*types.Instance{nodeInstance("node03", types.NodeStateMember)})
	assert.Zero(t, sink.Count())
}

// failingPublisher always fails; delivery to subscribers must continue
type failingPublisher struct {
	mu    sync.Mutex
	calls int
}

func (p *failingPublisher) Publish(types.Indication) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return errors.New("transport down")
}

func (p *failingPublisher) Close() error { return nil }

// TestEngine_PublisherFailureDoesNotBlockSubscribers tests publisher errors
// are logged, not fatal
func TestEngine_PublisherFailureDoesNotBlockSubscribers(t *testing.T) {
	pub := &failingPublisher{}
	e := New("cluster-test", WithPublisher(pub))
	sink := &testutil.MockIndicationSink{}
	_, err := e.Subscribe("", sink.Handler())
	require.NoError(t, err)
	e.Enable()

	e.Observe(nil)
	e.Observe([]*types.Instance{nodeInstance("node01", types.NodeStateMember)})

	assert.Equal(t, 1, sink.Count())
	pub.mu.Lock()
	assert.Equal(t, 1, pub.calls)
	pub.mu.Unlock()
}
