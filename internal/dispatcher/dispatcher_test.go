package dispatcher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-push-relay/internal/dispatcher"
	"github.com/tinywideclouds/go-push-relay/internal/history"
	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// --- Mocks ---

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	args := m.Called(ctx, token, title, body, data)
	return args.String(0), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) GetToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
func (m *MockTokenStore) SetToken(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}
func (m *MockTokenStore) ClearToken(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// slowProvider blocks until the dispatch timeout fires.
type slowProvider struct{}

func (p *slowProvider) Send(ctx context.Context, _, _, _ string, _ map[string]string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (*dispatcher.Dispatcher, *MockProvider, *MockTokenStore, *history.Log) {
	t.Helper()
	provider := new(MockProvider)
	tokens := new(MockTokenStore)
	log := history.NewLog()
	d := dispatcher.New(provider, tokens, log, time.Second, newTestLogger())
	return d, provider, tokens, log
}

// --- Tests ---

func TestDispatch_DirectTokenSuccess(t *testing.T) {
	d, provider, _, log := setup(t)
	before := time.Now().UTC()

	provider.On("Send", mock.Anything, "tok-1", "Hi", "there", map[string]string(nil)).
		Return("m1", nil)

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "Hi", Body: "there"})

	require.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.Equal(t, "m1", res.ProviderMessageID)

	records := log.List()
	require.Len(t, records, 1)
	assert.Equal(t, "tok-1", records[0].Token)
	assert.Equal(t, "Hi", records[0].Title)
	assert.Equal(t, "there", records[0].Body)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].Timestamp.Before(before))
	provider.AssertExpectations(t)
}

func TestDispatch_EmptyTitleMakesNoProviderCall(t *testing.T) {
	d, provider, _, log := setup(t)

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "   ", Body: "x"})

	var ve *dispatch.ValidationError
	require.ErrorAs(t, res.Err, &ve)
	assert.Equal(t, "title", ve.Field)
	assert.Empty(t, log.List())
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_EmptyBodyRejected(t *testing.T) {
	d, _, _, _ := setup(t)

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "Hi", Body: ""})

	var ve *dispatch.ValidationError
	require.ErrorAs(t, res.Err, &ve)
	assert.Equal(t, "body", ve.Field)
}

func TestDispatch_RecipientLookup(t *testing.T) {
	d, provider, tokens, log := setup(t)

	tokens.On("GetToken", mock.Anything, "user-2").Return("tok-2", nil)
	provider.On("Send", mock.Anything, "tok-2", "Hi", "there", map[string]string(nil)).
		Return("m2", nil)

	res := d.Dispatch(context.Background(), dispatch.Request{RecipientID: "user-2", Title: "Hi", Body: "there"})

	require.NoError(t, res.Err)
	require.Len(t, log.List(), 1)
	assert.Equal(t, "tok-2", log.List()[0].Token)
	tokens.AssertExpectations(t)
}

func TestDispatch_DirectTokenTakesPrecedence(t *testing.T) {
	d, provider, tokens, _ := setup(t)

	provider.On("Send", mock.Anything, "tok-direct", "Hi", "there", map[string]string(nil)).
		Return("m3", nil)

	res := d.Dispatch(context.Background(), dispatch.Request{
		Token:       "tok-direct",
		RecipientID: "user-2",
		Title:       "Hi",
		Body:        "there",
	})

	require.NoError(t, res.Err)
	tokens.AssertNotCalled(t, "GetToken", mock.Anything, mock.Anything)
}

func TestDispatch_RecipientNotFound(t *testing.T) {
	d, provider, tokens, log := setup(t)

	tokens.On("GetToken", mock.Anything, "ghost").Return("", dispatch.ErrTokenNotFound)

	res := d.Dispatch(context.Background(), dispatch.Request{RecipientID: "ghost", Title: "Hi", Body: "x"})

	var nf *dispatch.RecipientNotFoundError
	require.ErrorAs(t, res.Err, &nf)
	assert.Equal(t, "ghost", nf.UserID)
	assert.Empty(t, log.List())
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ProviderFailureLeavesHistoryUnchanged(t *testing.T) {
	d, provider, _, log := setup(t)

	provider.On("Send", mock.Anything, "tok-1", "Hi", "x", map[string]string(nil)).
		Return("", &dispatch.ProviderError{Code: dispatch.ProviderCodeInvalidToken, Message: "token is dead"})

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "Hi", Body: "x"})

	var pe *dispatch.ProviderError
	require.ErrorAs(t, res.Err, &pe)
	assert.Equal(t, dispatch.ProviderCodeInvalidToken, pe.Code)
	assert.Empty(t, log.List())
}

func TestDispatch_UntypedProviderErrorWrapped(t *testing.T) {
	d, provider, _, _ := setup(t)

	provider.On("Send", mock.Anything, "tok-1", "Hi", "x", map[string]string(nil)).
		Return("", errors.New("connection reset"))

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "Hi", Body: "x"})

	var pe *dispatch.ProviderError
	require.ErrorAs(t, res.Err, &pe)
	assert.Equal(t, dispatch.ProviderCodeUnavailable, pe.Code)
	assert.Contains(t, pe.Message, "connection reset")
}

func TestDispatch_ProviderTimeout(t *testing.T) {
	log := history.NewLog()
	tokens := new(MockTokenStore)
	d := dispatcher.New(&slowProvider{}, tokens, log, 20*time.Millisecond, newTestLogger())

	res := d.Dispatch(context.Background(), dispatch.Request{Token: "tok-1", Title: "Hi", Body: "x"})

	require.Error(t, res.Err)
	assert.True(t, dispatch.IsTimeout(res.Err))
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	assert.Empty(t, log.List())
}

func TestDispatch_NotIdempotent(t *testing.T) {
	d, provider, _, log := setup(t)

	provider.On("Send", mock.Anything, "tok-1", "Hi", "x", map[string]string(nil)).
		Return("m1", nil).Twice()

	req := dispatch.Request{Token: "tok-1", Title: "Hi", Body: "x"}
	require.NoError(t, d.Dispatch(context.Background(), req).Err)
	require.NoError(t, d.Dispatch(context.Background(), req).Err)

	assert.Len(t, log.List(), 2)
	provider.AssertExpectations(t)
}
