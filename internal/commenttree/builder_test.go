package commenttree

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func raw(id, parentID string, minutes int) RawComment {
	return RawComment{
		ID:        id,
		Content:   "comment " + id,
		PostID:    "post-1",
		ParentID:  parentID,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
		Author:    AuthorRef{ID: "u1", FirstName: "Ada", LastName: "Lovelace"},
	}
}

func ids(forest []*Comment) []string {
	out := make([]string, len(forest))
	for i, c := range forest {
		out[i] = c.ID
	}
	return out
}

func TestBuildForest(t *testing.T) {
	t.Run("nests replies and sorts roots newest first", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("1", "", 0),
			raw("2", "1", 1),
			raw("3", "", 5),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"3", "1"}, ids(forest))
		assert.Empty(t, forest[0].Replies)
		assert.Equal(t, []string{"2"}, ids(forest[1].Replies))
	})

	t.Run("orphan is promoted to root", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("1", "", 0),
			raw("7", "99", 3),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "1"}, ids(forest))
	})

	t.Run("self reference becomes a root", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{raw("1", "1", 0)})
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Empty(t, forest[0].Replies)
	})

	t.Run("two node cycle is broken", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("a", "b", 0),
			raw("b", "a", 1),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, Count(forest))
		assert.Equal(t, []string{"b"}, ids(forest))
		assert.Equal(t, []string{"a"}, ids(forest[0].Replies))
	})

	t.Run("replies keep input order", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("r", "", 0),
			raw("late", "r", 10),
			raw("early", "r", 1),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"late", "early"}, ids(forest[0].Replies))
	})

	t.Run("equal timestamps keep input order", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("x", "", 0),
			raw("y", "", 0),
			raw("z", "", 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, ids(forest))
	})

	t.Run("child listed before its parent", func(t *testing.T) {
		forest, err := BuildForest([]RawComment{
			raw("c", "b", 2),
			raw("b", "a", 1),
			raw("a", "", 0),
		})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, ids(forest))
		assert.Equal(t, "c", forest[0].Replies[0].Replies[0].ID)
	})

	t.Run("duplicate ids keep the first record", func(t *testing.T) {
		first := raw("1", "", 0)
		second := raw("1", "", 4)
		second.Content = "second"
		forest, err := BuildForest([]RawComment{first, second})
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Equal(t, "comment 1", forest[0].Content)
	})

	t.Run("malformed record fails the build", func(t *testing.T) {
		bad := raw("2", "", 0)
		bad.Content = ""
		_, err := BuildForest([]RawComment{raw("1", "", 0), bad})

		var merr *MalformedCommentError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, "content", merr.Field)
	})

	t.Run("empty input", func(t *testing.T) {
		forest, err := BuildForest(nil)
		require.NoError(t, err)
		assert.Empty(t, forest)
	})
}

func TestBuildForestRandomShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(60)
		raws := make([]RawComment, n)
		for i := range raws {
			parent := ""
			switch rng.Intn(4) {
			case 0:
			case 1:
				parent = fmt.Sprintf("missing-%d", i)
			default:
				parent = fmt.Sprintf("c%d", rng.Intn(n))
			}
			raws[i] = raw(fmt.Sprintf("c%d", i), parent, rng.Intn(30))
		}
		rng.Shuffle(len(raws), func(i, j int) { raws[i], raws[j] = raws[j], raws[i] })

		forest, err := BuildForest(raws)
		require.NoError(t, err)
		assert.Equal(t, n, Count(forest), "round %d", round)

		seen := map[string]int{}
		var walk func([]*Comment)
		walk = func(list []*Comment) {
			for _, c := range list {
				seen[c.ID]++
				walk(c.Replies)
			}
		}
		walk(forest)
		for _, r := range raws {
			assert.Equal(t, 1, seen[r.ID], "round %d comment %s", round, r.ID)
		}

		for i := 1; i < len(forest); i++ {
			assert.False(t, forest[i].CreatedAt.After(forest[i-1].CreatedAt), "round %d roots out of order", round)
		}
	}
}
