package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmeunier/commentpanel/internal/application"
	"github.com/lmeunier/commentpanel/internal/domain/model"
	"github.com/lmeunier/commentpanel/internal/domain/port/driven"
)

// fakeAPI is a scripted CommentAPI implementation recording the calls the
// panel makes.
type fakeAPI struct {
	listResult   []model.Comment
	listErr      error
	createResult *model.Comment
	createErr    error
	updateResult *model.Comment
	updateErr    error
	removeErr    error

	// Hooks invoked while the call is in flight, after the scripted
	// result is captured. Each fires once. They stand in for user
	// actions racing a pending backend call.
	onCreate func()
	onUpdate func()

	listedProduct string
	createdText   string
	updatedPK     int64
	updatedText   string
	removedPK     int64
	updateCalls   int
}

var _ driven.CommentAPI = (*fakeAPI)(nil)

func (f *fakeAPI) ListByProduct(ctx context.Context, productID string) ([]model.Comment, error) {
	f.listedProduct = productID
	return f.listResult, f.listErr
}

func (f *fakeAPI) Create(ctx context.Context, productID, text string) (*model.Comment, error) {
	f.createdText = text
	result, err := f.createResult, f.createErr
	if f.onCreate != nil {
		hook := f.onCreate
		f.onCreate = nil
		hook()
	}
	return result, err
}

func (f *fakeAPI) Update(ctx context.Context, pk int64, text string) (*model.Comment, error) {
	f.updateCalls++
	f.updatedPK = pk
	f.updatedText = text
	result, err := f.updateResult, f.updateErr
	if f.onUpdate != nil {
		hook := f.onUpdate
		f.onUpdate = nil
		hook()
	}
	return result, err
}

func (f *fakeAPI) Remove(ctx context.Context, pk int64) error {
	f.removedPK = pk
	return f.removeErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPanel(t *testing.T, api driven.CommentAPI) *application.Panel {
	t.Helper()

	panel, err := application.NewPanel(api, "http://localhost:8000/product/42/comments", discardLogger())
	require.NoError(t, err)
	return panel
}

func comment(pk int64, text string) model.Comment {
	return model.Comment{PK: pk, CommentText: text, Product: "42", Permissions: []string{}}
}

func TestNewPanel_ResolvesProduct(t *testing.T) {
	panel := newTestPanel(t, &fakeAPI{})
	assert.Equal(t, "42", panel.ProductID())
}

func TestNewPanel_BadPageURL(t *testing.T) {
	_, err := application.NewPanel(&fakeAPI{}, "http://localhost:8000/favorites", discardLogger())
	assert.ErrorIs(t, err, application.ErrNoProductRoute)
}

func TestLoad_PopulatesListVerbatim(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(3, "newest"), comment(2, "middle"), comment(1, "oldest")}}
	panel := newTestPanel(t, api)

	panel.Load(context.Background())

	state := panel.State()
	assert.Equal(t, "42", api.listedProduct)
	require.Len(t, state.Comments, 3)
	assert.Equal(t, int64(3), state.Comments[0].PK)
	assert.Equal(t, int64(2), state.Comments[1].PK)
	assert.Equal(t, int64(1), state.Comments[2].PK)
	assert.Empty(t, state.Error)
}

func TestLoad_APIError(t *testing.T) {
	api := &fakeAPI{listErr: &driven.APIError{Status: 500, StatusText: "Internal Server Error"}}
	panel := newTestPanel(t, api)

	panel.Load(context.Background())

	state := panel.State()
	assert.Empty(t, state.Comments)
	assert.Equal(t, "Evènement inattendu lors de la récupération des commentaires : 500 Internal Server Error", state.Error)
}

func TestLoad_TransportError(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("connection refused")}
	panel := newTestPanel(t, api)

	panel.Load(context.Background())

	state := panel.State()
	assert.Empty(t, state.Comments)
	assert.Equal(t, "Erreur lors de la récupération des commentaires : connection refused", state.Error)
}

func TestSubmitComment_PrependsServerCopy(t *testing.T) {
	created := comment(2, "hello")
	api := &fakeAPI{
		listResult:   []model.Comment{comment(1, "hi")},
		createResult: &created,
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.SubmitComment(context.Background(), "hello")

	state := panel.State()
	assert.Equal(t, "hello", api.createdText)
	require.Len(t, state.Comments, 2)
	assert.Equal(t, int64(2), state.Comments[0].PK)
	assert.Equal(t, int64(1), state.Comments[1].PK)
	assert.Empty(t, state.NewComment)
	assert.Empty(t, state.Error)
}

func TestSubmitComment_FailureKeepsBufferAndList(t *testing.T) {
	api := &fakeAPI{
		listResult: []model.Comment{comment(1, "hi")},
		createErr:  &driven.APIError{Status: 403, StatusText: "Forbidden"},
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.SubmitComment(context.Background(), "rejected text")

	state := panel.State()
	require.Len(t, state.Comments, 1)
	assert.Equal(t, "rejected text", state.NewComment)
	assert.Equal(t, "Evènement inattendu lors de la création d'un commentaire : 403 Forbidden", state.Error)
}

func TestSubmitComment_EmptyTextIsSentAsIs(t *testing.T) {
	created := comment(5, "")
	api := &fakeAPI{createResult: &created}
	panel := newTestPanel(t, api)

	panel.SubmitComment(context.Background(), "")

	assert.Equal(t, "", api.createdText)
	state := panel.State()
	require.Len(t, state.Comments, 1)
	assert.Equal(t, int64(5), state.Comments[0].PK)
}

func TestToggleEdit(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(1, "hi"), comment(2, "ho")}}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	t.Run("open copies the comment text as draft", func(t *testing.T) {
		panel.ToggleEdit(1)

		state := panel.State()
		require.NotNil(t, state.Edit)
		assert.Equal(t, int64(1), state.Edit.PK)
		assert.Equal(t, "hi", state.Edit.Draft)
	})

	t.Run("same pk again closes the session", func(t *testing.T) {
		panel.ToggleEdit(1)
		assert.Nil(t, panel.State().Edit)
	})

	t.Run("switching comments keeps only the second", func(t *testing.T) {
		panel.ToggleEdit(1)
		panel.ToggleEdit(2)

		state := panel.State()
		require.NotNil(t, state.Edit)
		assert.Equal(t, int64(2), state.Edit.PK)
		assert.Equal(t, "ho", state.Edit.Draft)
	})

	t.Run("unknown pk closes any open session", func(t *testing.T) {
		panel.ToggleEdit(2)
		panel.ToggleEdit(99)
		assert.Nil(t, panel.State().Edit)
	})
}

func TestSetDraft_DoesNotTouchList(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(1, "hi")}}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.ToggleEdit(1)
	panel.SetDraft("edited but unsaved")

	state := panel.State()
	require.NotNil(t, state.Edit)
	assert.Equal(t, "edited but unsaved", state.Edit.Draft)
	assert.Equal(t, "hi", state.Comments[0].CommentText, "list shows saved text until the backend confirms")
}

func TestSaveEdit_MergesConfirmedTextAndClearsSession(t *testing.T) {
	updated := comment(1, "hi, normalized")
	api := &fakeAPI{
		listResult:   []model.Comment{comment(1, "hi")},
		updateResult: &updated,
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.ToggleEdit(1)
	panel.SetDraft("hi, edited")
	panel.SaveEdit(context.Background())

	state := panel.State()
	assert.Equal(t, int64(1), api.updatedPK)
	assert.Equal(t, "hi, edited", api.updatedText)
	assert.Nil(t, state.Edit)
	assert.Equal(t, "hi, normalized", state.Comments[0].CommentText, "list carries the backend's canonical text")
}

func TestSaveEdit_FailureKeepsSessionAndDraft(t *testing.T) {
	api := &fakeAPI{
		listResult: []model.Comment{comment(1, "hi")},
		updateErr:  &driven.APIError{Status: 500, StatusText: "Internal Server Error"},
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.ToggleEdit(1)
	panel.SetDraft("doomed edit")
	panel.SaveEdit(context.Background())

	state := panel.State()
	require.NotNil(t, state.Edit)
	assert.Equal(t, "doomed edit", state.Edit.Draft)
	assert.Equal(t, "hi", state.Comments[0].CommentText)
	assert.Equal(t, "Evènement inattendu lors de la mise à jour d'un commentaire : 500 Internal Server Error", state.Error)
}

func TestSaveEdit_WithoutSessionIsNoop(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(1, "hi")}}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.SaveEdit(context.Background())

	assert.Zero(t, api.updateCalls)
	assert.Empty(t, panel.State().Error)
}

func TestDeleteComment_FiltersPKPreservingOrder(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(3, "c"), comment(2, "b"), comment(1, "a")}}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.DeleteComment(context.Background(), 2)

	state := panel.State()
	assert.Equal(t, int64(2), api.removedPK)
	require.Len(t, state.Comments, 2)
	assert.Equal(t, int64(3), state.Comments[0].PK)
	assert.Equal(t, "c", state.Comments[0].CommentText)
	assert.Equal(t, int64(1), state.Comments[1].PK)
	assert.Equal(t, "a", state.Comments[1].CommentText)
}

func TestDeleteComment_FailureLeavesListUntouched(t *testing.T) {
	api := &fakeAPI{
		listResult: []model.Comment{comment(1, "hi")},
		removeErr:  &driven.APIError{Status: 404, StatusText: "Not Found"},
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.DeleteComment(context.Background(), 1)

	state := panel.State()
	require.Len(t, state.Comments, 1)
	assert.Equal(t, "Evènement inattendu lors de la suppression d'un commentaire : 404 Not Found", state.Error)
}

func TestDeleteComment_DropsEditSessionForDeletedComment(t *testing.T) {
	api := &fakeAPI{listResult: []model.Comment{comment(1, "hi"), comment(2, "ho")}}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.ToggleEdit(1)
	panel.DeleteComment(context.Background(), 1)

	assert.Nil(t, panel.State().Edit)
}

func TestErrorCell_OverwrittenNeverCleared(t *testing.T) {
	created := comment(2, "ok")
	api := &fakeAPI{
		listErr:      errors.New("boom"),
		createResult: &created,
	}
	panel := newTestPanel(t, api)

	panel.Load(context.Background())
	first := panel.State().Error
	require.NotEmpty(t, first)

	// A later success leaves the stale message in place.
	panel.SubmitComment(context.Background(), "ok")
	assert.Equal(t, first, panel.State().Error)

	// A later failure overwrites it.
	api.removeErr = errors.New("network down")
	panel.DeleteComment(context.Background(), 2)
	assert.Equal(t, "Erreur lors de la suppression des commentaires : network down", panel.State().Error)
}

func TestSaveEdit_SessionMovedMidFlightStaysOpen(t *testing.T) {
	updated := comment(1, "merged")
	api := &fakeAPI{
		listResult:   []model.Comment{comment(1, "hi"), comment(2, "ho")},
		updateResult: &updated,
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	panel.ToggleEdit(1)

	// While the save is in flight, the user moves the edit session to
	// another comment. The resolving save must not close that newer
	// session, but its confirmed text still lands in the list.
	api.onUpdate = func() {
		panel.ToggleEdit(2)
	}

	panel.SaveEdit(context.Background())

	state := panel.State()
	require.NotNil(t, state.Edit)
	assert.Equal(t, int64(2), state.Edit.PK)
	assert.Equal(t, "ho", state.Edit.Draft)
	assert.Equal(t, "merged", state.Comments[0].CommentText)
}

func TestSubmitComment_BufferReplacedMidFlightIsKept(t *testing.T) {
	created := comment(2, "premier")
	api := &fakeAPI{
		listResult:   []model.Comment{comment(1, "hi")},
		createResult: &created,
	}
	panel := newTestPanel(t, api)
	panel.Load(context.Background())

	// While the first submission is in flight, a second one fails and
	// leaves newer text in the buffer. The first submission's success
	// must not clear it.
	api.onCreate = func() {
		api.createErr = errors.New("connection reset")
		panel.SubmitComment(context.Background(), "deuxième")
	}

	panel.SubmitComment(context.Background(), "premier")

	state := panel.State()
	require.Len(t, state.Comments, 2)
	assert.Equal(t, int64(2), state.Comments[0].PK)
	assert.Equal(t, "deuxième", state.NewComment)
}
