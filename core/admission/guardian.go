package admission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/records"
)

const MinSearchLen = 2

// ParentDirectory searches the parents known to the backend.
type ParentDirectory interface {
	SearchParents(ctx context.Context, scope core.Scope, query string) ([]records.Parent, error)
}

// GuardianSearcher looks up existing parents for the guardian step.
type GuardianSearcher struct {
	dir   ParentDirectory
	group singleflight.Group
}

func NewGuardianSearcher(dir ParentDirectory) *GuardianSearcher {
	return &GuardianSearcher{dir: dir}
}

// Search returns the parents matching q, best match first.
// Queries shorter than MinSearchLen return nothing without calling the backend.
func (s *GuardianSearcher) Search(ctx context.Context, scope core.Scope, q string) ([]records.Parent, error) {
	q = core.CleanString(q, true /* lower */)
	if utf8.RuneCountInString(q) < MinSearchLen {
		return []records.Parent{}, nil
	}

	// the shared call is not bound to the first caller
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(searchKey(ctx, scope, q), func() (interface{}, error) {
		return s.dir.SearchParents(shared, scope, q)
	})
	select {
	case <-ctx.Done():
		return nil, core.NewAPIError(core.KindCanceled, 0, "parent search canceled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		parents := append([]records.Parent(nil), res.Val.([]records.Parent)...)
		rank(parents, q)
		return parents, nil
	}
}

// searchKey narrows the coalescing key to the caller token.
func searchKey(ctx context.Context, scope core.Scope, q string) string {
	sum := sha256.Sum256([]byte(core.TokenFrom(ctx)))
	return scope.SnapshotKey(hex.EncodeToString(sum[:8]), q)
}

// rank sorts parents by their best similarity to q over name, phone and email.
func rank(parents []records.Parent, q string) {
	scores := make(map[string]float64, len(parents))
	for _, p := range parents {
		scores[p.ID] = score(p, q)
	}
	sort.SliceStable(parents, func(i, j int) bool {
		return scores[parents[i].ID] > scores[parents[j].ID]
	})
}

func score(p records.Parent, q string) float64 {
	var best float64
	for _, attr := range []string{p.Name, p.Phone, p.Email} {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}
		if strings.HasPrefix(attr, q) {
			return 2
		}
		ratio := difflib.NewMatcher(strings.Split(q, ""), strings.Split(attr, "")).Ratio()
		if strings.Contains(attr, q) {
			ratio++
		}
		if ratio > best {
			best = ratio
		}
	}
	return best
}
