package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	redisstore "github.com/MrSnakeDoc/bookmarkhub/internal/store/redis"
)

var sess = auth.Session{Token: "tok", UserID: "user-1", Email: "ann@example.com"}

func newTestService(t *testing.T, wrap func(Repository) Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var repo Repository = redisstore.NewStore(client)
	if wrap != nil {
		repo = wrap(repo)
	}
	return New(repo, index.NewWorkspace(), logger.NewNop())
}

func save(t *testing.T, s *Service, title, url string, tags ...string) domain.Bookmark {
	t.Helper()
	b, err := s.SaveBookmark(context.Background(), sess, BookmarkInput{Title: title, URL: url, Tags: tags})
	require.NoError(t, err)
	return b
}

func TestSaveBookmarkCreateAndEdit(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	first := save(t, s, "Go", "https://go.dev", "lang", "Lang", "dev")
	require.Equal(t, 1, first.Rank())
	require.ElementsMatch(t, []string{"lang", "dev"}, first.Tags)

	second := save(t, s, "Rust", "https://rust-lang.org")
	require.Equal(t, 2, second.Rank())

	_, err := s.RecordAccess(ctx, sess, first.ID)
	require.NoError(t, err)

	edited, err := s.SaveBookmark(ctx, sess, BookmarkInput{ID: first.ID, Title: "Golang", URL: "https://go.dev", Tags: []string{"dev"}})
	require.NoError(t, err)
	require.Equal(t, "Golang", edited.Title)
	require.Equal(t, []string{"dev"}, edited.Tags)
	require.Equal(t, 1, edited.Rank())
	require.Equal(t, 1, edited.AccessCount)
	require.True(t, edited.CreatedAt.Equal(first.CreatedAt))

	_, err = s.SaveBookmark(ctx, sess, BookmarkInput{Title: " ", URL: "https://x"})
	require.ErrorIs(t, err, ErrInvalid)
	_, err = s.SaveBookmark(ctx, sess, BookmarkInput{ID: "missing", Title: "x", URL: "https://x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveBookmarkAppliesRules(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	tag, err := s.AddTag(ctx, sess, "golang")
	require.NoError(t, err)
	_, _, err = s.CreateRule(ctx, sess, domain.TagRule{TargetField: domain.FieldTitle, MatchType: domain.MatchStartsWith, Pattern: "GO", TagID: tag.ID})
	require.NoError(t, err)

	b := save(t, s, "Go tour", "https://go.dev/tour", "Golang", "learn")
	require.ElementsMatch(t, []string{"golang", "learn"}, b.Tags)

	other := save(t, s, "Python", "https://python.org")
	require.Empty(t, other.Tags)
}

func TestTogglePinAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	b := save(t, s, "Go", "https://go.dev")

	pinned, err := s.TogglePin(ctx, sess, b.ID)
	require.NoError(t, err)
	require.True(t, pinned.Pinned)
	unpinned, err := s.TogglePin(ctx, sess, b.ID)
	require.NoError(t, err)
	require.False(t, unpinned.Pinned)

	require.NoError(t, s.DeleteBookmark(ctx, sess, b.ID))
	require.ErrorIs(t, s.DeleteBookmark(ctx, sess, b.ID), ErrNotFound)
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	work, err := s.AddTag(ctx, sess, "work")
	require.NoError(t, err)
	_, err = s.AddTag(ctx, sess, "WORK")
	require.ErrorIs(t, err, ErrConflict)
	_, err = s.AddTag(ctx, sess, "")
	require.ErrorIs(t, err, ErrInvalid)

	b := save(t, s, "Jira", "https://jira.example.com", "work")
	_, err = s.RenameTag(ctx, sess, work.ID, "office")
	require.NoError(t, err)
	got, err := s.GetBookmark(ctx, sess, b.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"office"}, got.Tags)

	tags, err := s.ReplaceTagSet(ctx, sess, []string{"home", "Office", "home"})
	require.NoError(t, err)
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.Name
	}
	require.Equal(t, []string{"home", "office"}, names)

	require.NoError(t, s.DeleteTag(ctx, sess, work.ID))
	got, err = s.GetBookmark(ctx, sess, b.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}

func TestCreateAndDeleteRule(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	gob := save(t, s, "Go blog", "https://go.dev/blog")
	save(t, s, "News", "https://news.example.com")
	tag, err := s.AddTag(ctx, sess, "go")
	require.NoError(t, err)

	_, _, err = s.CreateRule(ctx, sess, domain.TagRule{TargetField: domain.FieldURL, MatchType: domain.MatchContains, Pattern: "", TagID: tag.ID})
	require.ErrorIs(t, err, ErrInvalid)
	_, _, err = s.CreateRule(ctx, sess, domain.TagRule{TargetField: domain.FieldURL, MatchType: domain.MatchContains, Pattern: "go", TagID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)

	rule, applied, err := s.CreateRule(ctx, sess, domain.TagRule{TargetField: domain.FieldURL, MatchType: domain.MatchContains, Pattern: "GO.DEV", TagID: tag.ID})
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	got, err := s.GetBookmark(ctx, sess, gob.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"go"}, got.Tags)

	require.NoError(t, s.DeleteRule(ctx, sess, rule.ID, true))
	got, err = s.GetBookmark(ctx, sess, gob.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
	require.ErrorIs(t, s.DeleteRule(ctx, sess, rule.ID, false), ErrNotFound)

	rules, err := s.ListRules(ctx, sess)
	require.NoError(t, err)
	require.Empty(t, rules)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	require.Equal(t, domain.DefaultSettings(), s.GetSettings(ctx, sess))

	want := domain.Settings{ViewMode: domain.ViewList, ListColumns: 2, SortKey: domain.SortTitle, SortOrder: domain.SortAsc}
	got, err := s.UpdateSettings(ctx, sess, want)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, want, s.GetSettings(ctx, sess))

	_, err = s.UpdateSettings(ctx, sess, domain.Settings{ViewMode: domain.ViewList, ListColumns: 9, SortKey: domain.SortTitle, SortOrder: domain.SortAsc})
	require.ErrorIs(t, err, ErrInvalid)

	q, err := s.ResolveQuery(ctx, sess, "go", nil, "", "desc")
	require.NoError(t, err)
	require.Equal(t, domain.SortTitle, q.SortKey)
	require.Equal(t, domain.SortDesc, q.SortOrder)

	_, err = s.ResolveQuery(ctx, sess, "", nil, "bogus", "")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestImportDedupesAgainstExistingAndBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	save(t, s, "Existing", "https://a.example.com")

	added := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	report, err := s.Import(ctx, sess, []domain.ImportEntry{
		{Title: "A again", URL: "https://a.example.com"},
		{Title: "B", URL: "https://b.example.com", CreatedAt: added, Tags: []string{"imported"}},
		{Title: "B twice", URL: "https://b.example.com"},
	}, 2)
	require.NoError(t, err)
	require.Equal(t, domain.ImportReport{Imported: 1, Duplicates: 2, Skipped: 2}, report)

	list, err := s.ListBookmarks(ctx, sess)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var b domain.Bookmark
	for _, x := range list {
		if x.URL == "https://b.example.com" {
			b = x
		}
	}
	require.Equal(t, "B", b.Title)
	require.True(t, b.CreatedAt.Equal(added))
	require.False(t, b.Pinned)
	require.Zero(t, b.AccessCount)
	require.Equal(t, []string{"imported"}, b.Tags)
}

func TestImportAndExportNetscape(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	doc := `<DL><p>
<DT><A HREF="https://go.dev" ADD_DATE="1700000000">Go</A>
<DT><A HREF="javascript:void(0)">bad</A>
<DT><A HREF="https://go.dev">dup</A>
</DL>`
	report, err := s.ImportNetscape(ctx, sess, strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, domain.ImportReport{Imported: 1, Duplicates: 1, Skipped: 1}, report)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, sess, &buf))
	require.Contains(t, buf.String(), `<DT><A HREF="https://go.dev" ADD_DATE="1700000000">Go</A>`)
}

func TestOrderingCommit(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	a := save(t, s, "a", "https://a")
	b := save(t, s, "b", "https://b")
	c := save(t, s, "c", "https://c")
	_, err := s.TogglePin(ctx, sess, c.ID)
	require.NoError(t, err)

	custom := domain.Query{SortKey: domain.SortCustom}
	p, err := s.BeginOrdering(ctx, sess, custom)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, domain.IDs(p.Pinned))
	require.Equal(t, []string{a.ID, b.ID}, domain.IDs(p.Unpinned))

	p, err = s.MoveOrdering(sess, 1, 0, false)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, a.ID}, domain.IDs(p.Unpinned))

	shown, err := s.Present(ctx, sess, custom)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, a.ID}, domain.IDs(shown.Unpinned))

	_, err = s.EndOrdering(ctx, sess)
	require.NoError(t, err)

	stored, err := s.ListBookmarks(ctx, sess)
	require.NoError(t, err)
	ranks := map[string]int{}
	for _, x := range stored {
		ranks[x.ID] = x.Rank()
	}
	require.Equal(t, map[string]int{c.ID: 0, b.ID: 1000, a.ID: 1001}, ranks)

	_, err = s.EndOrdering(ctx, sess)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = s.MoveOrdering(sess, 0, 1, false)
	require.ErrorIs(t, err, ErrInvalid)
}

func titles(bookmarks []domain.Bookmark) []string {
	out := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = b.Title
	}
	return out
}

// storedOrder returns the user's titles in persisted custom order.
func storedOrder(t *testing.T, s *Service) []string {
	t.Helper()
	stored, err := s.ListBookmarks(context.Background(), sess)
	require.NoError(t, err)
	return titles(domain.SortByRank(stored))
}

func TestOrderingUnderFilterStartsFromStoredOrder(t *testing.T) {
	tests := []struct {
		name    string
		created []string
		stored  []string
		view    []string
		want    []string
	}{
		{
			name:    "move back to creation order",
			created: []string{"x1", "x2", "Alpha"},
			stored:  []string{"x2", "x1", "Alpha"},
			view:    []string{"x2", "x1"},
			want:    []string{"x1", "x2", "Alpha"},
		},
		{
			name:    "hidden bookmarks keep their order",
			created: []string{"Alpha", "Beta", "x1", "x2", "x3"},
			stored:  []string{"x3", "x2", "x1", "Beta", "Alpha"},
			view:    []string{"x3", "x2", "x1"},
			want:    []string{"x2", "x3", "x1", "Beta", "Alpha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestService(t, nil)

			ids := map[string]string{}
			for _, title := range tt.created {
				ids[title] = save(t, s, title, "https://"+strings.ToLower(title)).ID
			}
			for i, title := range tt.stored {
				require.NoError(t, s.repo.UpdateRank(ctx, sess.UserID, ids[title], domain.UnpinnedRankOffset+i))
			}
			require.Equal(t, tt.stored, storedOrder(t, s))

			filtered := domain.Query{Filter: domain.Filter{Search: "x"}, SortKey: domain.SortCustom}
			l, err := s.BeginOrdering(ctx, sess, filtered)
			require.NoError(t, err)
			require.Equal(t, tt.view, titles(l.Unpinned))
			require.Equal(t, "x", l.Query.Search)

			_, err = s.MoveOrdering(sess, 0, 1, false)
			require.NoError(t, err)

			ended, err := s.EndOrdering(ctx, sess)
			require.NoError(t, err)
			require.False(t, ended.Query.OrderingMode)
			require.Equal(t, tt.want, storedOrder(t, s))
		})
	}
}

func TestMutationsRefreshOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	a := save(t, s, "a", "https://a")
	save(t, s, "b", "https://b")
	save(t, s, "c", "https://c")

	custom := domain.Query{SortKey: domain.SortCustom}
	_, err := s.BeginOrdering(ctx, sess, custom)
	require.NoError(t, err)
	_, err = s.MoveOrdering(sess, 2, 0, false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteBookmark(ctx, sess, a.ID))
	save(t, s, "d", "https://d")

	shown, err := s.Present(ctx, sess, custom)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "d"}, titles(shown.Unpinned))

	_, err = s.EndOrdering(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "d"}, storedOrder(t, s))
}

type failingRanks struct {
	Repository
	calls  int
	failAt int
}

func (f *failingRanks) UpdateRank(ctx context.Context, userID, id string, rank int) error {
	f.calls++
	if f.calls == f.failAt {
		return errors.New("connection reset")
	}
	return f.Repository.UpdateRank(ctx, userID, id, rank)
}

func TestOrderingPartialCommitRefetches(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, func(r Repository) Repository { return &failingRanks{Repository: r, failAt: 2} })

	a := save(t, s, "a", "https://a")
	b := save(t, s, "b", "https://b")
	c := save(t, s, "c", "https://c")

	_, err := s.BeginOrdering(ctx, sess, domain.Query{SortKey: domain.SortCustom})
	require.NoError(t, err)
	_, err = s.MoveOrdering(sess, 2, 0, false)
	require.NoError(t, err)

	p, err := s.EndOrdering(ctx, sess)
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	require.Equal(t, 1, commitErr.Committed)
	require.Equal(t, 3, commitErr.Total)
	require.Equal(t, 3, p.Len())

	stored, err := s.ListBookmarks(ctx, sess)
	require.NoError(t, err)
	ranks := map[string]int{}
	for _, x := range stored {
		ranks[x.ID] = x.Rank()
	}
	require.Equal(t, 1000, ranks[c.ID])
	require.Equal(t, 2, ranks[b.ID])
	require.Equal(t, 1, ranks[a.ID])
	require.False(t, s.workspace.Active(sess.UserID))
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	save(t, s, "a", "https://a", "x")
	save(t, s, "b", "https://b", "y")

	n, err := s.DeleteAll(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	list, err := s.ListBookmarks(ctx, sess)
	require.NoError(t, err)
	require.Empty(t, list)
	tags, err := s.ListTags(ctx, sess)
	require.NoError(t, err)
	require.Empty(t, tags)
}
