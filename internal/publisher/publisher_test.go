package publisher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scripters-bot/internal/capture"
	"scripters-bot/internal/metrics"
	"scripters-bot/internal/posts"
	"scripters-bot/internal/render"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock capture.Store used as a mirror.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, rec posts.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type fixture struct {
	dataDir string
	siteDir string
	pub     *Publisher
	metrics *metrics.Recorder
}

func newFixture(t *testing.T, mirror capture.Store) fixture {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data", "posts")
	siteDir := filepath.Join(root, "site")

	records, err := capture.NewFileStore(dataDir)
	require.NoError(t, err)
	renderer, err := render.New(render.Config{BotToken: "123:TOKEN", BaseURL: "https://example.com"})
	require.NoError(t, err)
	pages, err := render.NewPageWriter(siteDir)
	require.NoError(t, err)
	rec := metrics.New()

	deps := Deps{Records: records, Renderer: renderer, Pages: pages, Metrics: rec}
	if mirror != nil {
		deps.Mirror = mirror
	}
	pub, err := New(deps)
	require.NoError(t, err)
	return fixture{dataDir: dataDir, siteDir: siteDir, pub: pub, metrics: rec}
}

func channelPost(id int) *telego.Message {
	return &telego.Message{
		MessageID:  id,
		Chat:       telego.Chat{ID: -1001, Type: "channel", Title: "Scripters", Username: "ScriptersMarketplace"},
		SenderChat: &telego.Chat{ID: -1001, Title: "Scripters", Username: "ScriptersMarketplace"},
		Caption:    "New <tool> & more",
		Photo:      []telego.PhotoSize{{FileID: "small"}, {FileID: "big"}},
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestPublish_WritesRecordAndPage(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.pub.Publish(context.Background(), channelPost(42)))

	record, err := os.ReadFile(filepath.Join(f.dataDir, "42.json"))
	require.NoError(t, err)
	assert.Contains(t, string(record), `"caption": "New <tool> & more"`)

	page, err := os.ReadFile(filepath.Join(f.siteDir, "posts", "42.html"))
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<h1>Scripters</h1>")
	assert.Contains(t, html, "<p>New &lt;tool&gt; &amp; more</p>")
	assert.Contains(t, html, `<meta property="og:image" content="https://api.telegram.org/file/bot123:TOKEN/big">`)
	assert.Contains(t, html, `href="https://example.com/posts/42.html"`)
}

func TestPublish_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.pub.Publish(ctx, channelPost(5)))
	first, err := os.ReadFile(filepath.Join(f.siteDir, "posts", "5.html"))
	require.NoError(t, err)

	require.NoError(t, f.pub.Publish(ctx, channelPost(5)))
	second, err := os.ReadFile(filepath.Join(f.siteDir, "posts", "5.html"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPublish_InvalidRecordSkipsWrites(t *testing.T) {
	mirror := new(MockStore)
	f := newFixture(t, mirror)

	err := f.pub.Publish(context.Background(), &telego.Message{Caption: "no id"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, statErr := os.Stat(f.dataDir)
	assert.True(t, os.IsNotExist(statErr), "no record directory should be created")
	_, statErr = os.Stat(f.siteDir)
	assert.True(t, os.IsNotExist(statErr), "no page should be written")
	mirror.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	err = f.pub.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestPublish_RecordFailure(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.dataDir), 0o750))
	require.NoError(t, os.WriteFile(f.dataDir, []byte("not a dir"), 0o600))

	err := f.pub.Publish(context.Background(), channelPost(8))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, metrics.ArtifactRecord, perr.Artifact)
	assert.Equal(t, 8, perr.PostID)

	_, statErr := os.Stat(filepath.Join(f.siteDir, "posts", "8.html"))
	assert.True(t, os.IsNotExist(statErr), "page must not be written when the record fails")
}

func TestPublish_PageFailureLeavesRecord(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.MkdirAll(f.siteDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(f.siteDir, "posts"), []byte("x"), 0o600))

	err := f.pub.Publish(context.Background(), channelPost(9))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, metrics.ArtifactPage, perr.Artifact)
	assert.True(t, strings.HasPrefix(err.Error(), "persist page for post 9"))

	_, statErr := os.Stat(filepath.Join(f.dataDir, "9.json"))
	assert.NoError(t, statErr, "record stays in place")
}

func TestPublish_MirrorFailureIsNotFatal(t *testing.T) {
	mirror := new(MockStore)
	mirror.On("Save", mock.Anything, mock.MatchedBy(func(rec posts.Record) bool { return rec.ID == 11 })).
		Return(errors.New("mongo down")).Once()
	f := newFixture(t, mirror)

	require.NoError(t, f.pub.Publish(context.Background(), channelPost(11)))
	mirror.AssertExpectations(t)

	_, statErr := os.Stat(filepath.Join(f.siteDir, "posts", "11.html"))
	assert.NoError(t, statErr)
}

func TestRegenerateAndRecent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, id := range []int{1, 2, 3} {
		require.NoError(t, f.pub.Publish(ctx, channelPost(id)))
	}
	require.NoError(t, os.Remove(filepath.Join(f.siteDir, "posts", "2.html")))

	n, err := f.pub.Regenerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = os.Stat(filepath.Join(f.siteDir, "posts", "2.html"))
	assert.NoError(t, err)
	index, err := os.ReadFile(filepath.Join(f.siteDir, "index.html"))
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(index), "posts/3.html"), strings.Index(string(index), "posts/1.html"))

	recent, err := f.pub.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].ID)
	assert.Equal(t, 2, recent[1].ID)
}

func TestPersistenceError_Unwrap(t *testing.T) {
	base := errors.New("disk full")
	err := error(&PersistenceError{Artifact: "record", PostID: 1, Err: base})
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "persist record for post 1: disk full", err.Error())

	terr := error(&TransportError{Op: "long polling", Err: base})
	assert.ErrorIs(t, terr, base)
}
