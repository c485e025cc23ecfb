package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/internal/workflows"
	"github.com/wms-platform/fbs-supply-service/pkg/cloudevents"
	"github.com/wms-platform/fbs-supply-service/pkg/kafka"
	testutil "github.com/wms-platform/fbs-supply-service/pkg/testing"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, evt application.BatchEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockWorkflowStarter struct {
	mock.Mock
}

func (m *MockWorkflowStarter) StartWorkflow(ctx context.Context, workflowID string, workflowName string, args ...interface{}) (client.WorkflowRun, error) {
	called := m.Called(ctx, workflowID, workflowName, args)
	return nil, called.Error(1)
}

type recordingListener struct {
	orders []string
}

func (l *recordingListener) OrderChanged(_ context.Context, orderID string) {
	l.orders = append(l.orders, orderID)
}

func batchEvent(data interface{}) *cloudevents.CloudEvent {
	event := cloudevents.NewEventFactory(cloudevents.SourceManufacturing).
		CreateEvent(context.Background(), cloudevents.BatchStateChanged, "batch/batch-1", data)
	event.ID = "evt-1"
	return event
}

func TestBatchEventHandlerDispatches(t *testing.T) {
	logger, _ := testutil.NewTestLogger()
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, application.BatchEvent{EventID: "evt-1", BatchID: "batch-1"}).Return(nil)

	handler := NewBatchEventHandler(dispatcher, logger)
	err := handler.Handle(context.Background(), batchEvent(cloudevents.BatchStateChangedData{BatchID: "batch-1", Status: "completed"}))

	require.NoError(t, err)
	dispatcher.AssertExpectations(t)
}

func TestBatchEventHandlerRejectsBadPayloads(t *testing.T) {
	logger, _ := testutil.NewTestLogger()
	dispatcher := new(MockDispatcher)
	handler := NewBatchEventHandler(dispatcher, logger)

	err := handler.Handle(context.Background(), batchEvent(cloudevents.BatchStateChangedData{}))
	assert.True(t, kafka.IsPermanent(err))

	noData := batchEvent(nil)
	err = handler.Handle(context.Background(), noData)
	assert.True(t, kafka.IsPermanent(err))

	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestBatchEventHandlerPropagatesDispatchFailure(t *testing.T) {
	logger, _ := testutil.NewTestLogger()
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("package-allocator: persistence failure"))

	handler := NewBatchEventHandler(dispatcher, logger)
	err := handler.Handle(context.Background(), batchEvent(cloudevents.BatchStateChangedData{BatchID: "batch-1"}))

	require.Error(t, err)
	assert.False(t, kafka.IsPermanent(err))
}

func TestWorkflowDispatcher(t *testing.T) {
	starter := new(MockWorkflowStarter)
	input := workflows.BatchCompletedInput{EventID: "evt-1", BatchID: "batch-1"}
	starter.On("StartWorkflow", mock.Anything, "batch-completed-batch-1-evt-1", "BatchCompletedWorkflow", []interface{}{input}).
		Return(nil, nil).Once()

	dispatcher := NewWorkflowDispatcher(starter, nil)
	require.NoError(t, dispatcher.Dispatch(context.Background(), application.BatchEvent{EventID: "evt-1", BatchID: "batch-1"}))
	starter.AssertExpectations(t)

	starter.On("StartWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))
	err := dispatcher.Dispatch(context.Background(), application.BatchEvent{EventID: "evt-2", BatchID: "batch-1"})
	assert.ErrorContains(t, err, "failed to start workflow")
}

func TestOrderEventHandler(t *testing.T) {
	listener := &recordingListener{}
	handler := NewOrderEventHandler(listener)

	event := cloudevents.NewEventFactory(cloudevents.SourceOrders).
		CreateEvent(context.Background(), "fbs.order.status-changed", "order/order-1", cloudevents.OrderChangedData{OrderID: "order-1"})
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, []string{"order-1"}, listener.orders)

	bad := cloudevents.NewEventFactory(cloudevents.SourceOrders).
		CreateEvent(context.Background(), "fbs.order.status-changed", "order/", cloudevents.OrderChangedData{})
	assert.True(t, kafka.IsPermanent(handler.Handle(context.Background(), bad)))
	assert.Len(t, listener.orders, 1)
}

type recordingSubscriber struct {
	exact map[string]string
	all   []string
}

func (s *recordingSubscriber) Subscribe(topic string, eventType string, _ kafka.EventHandler) {
	s.exact[topic] = eventType
}

func (s *recordingSubscriber) SubscribeAll(topic string, _ kafka.EventHandler) {
	s.all = append(s.all, topic)
}

func TestRegister(t *testing.T) {
	logger, _ := testutil.NewTestLogger()
	sub := &recordingSubscriber{exact: map[string]string{}}

	Register(sub, Topics{Batches: kafka.Topics.BatchEvents, Orders: kafka.Topics.OrdersEvents},
		NewBatchEventHandler(new(MockDispatcher), logger),
		NewOrderEventHandler(&recordingListener{}))

	assert.Equal(t, cloudevents.BatchStateChanged, sub.exact[kafka.Topics.BatchEvents])
	assert.Equal(t, []string{kafka.Topics.OrdersEvents}, sub.all)
}
