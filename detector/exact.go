package detector

import (
	"github.com/samber/lo"

	"panelscan/types"
)

type exactKey struct {
	width  int
	height int
	digest types.Digest
}

func keyOf(r *types.ImageRecord) exactKey {
	return exactKey{width: r.Width(), height: r.Height(), digest: r.Digest()}
}

// FindExactDuplicates groups records sharing width, height and pixel digest.
// Groups come out in order of their first member; members keep record order.
func FindExactDuplicates(records []*types.ImageRecord) []types.DuplicateGroup {
	buckets := make(map[exactKey][]*types.ImageRecord)
	var order []exactKey

	for _, r := range records {
		k := keyOf(r)
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var groups []types.DuplicateGroup
	for _, k := range order {
		members := buckets[k]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, types.DuplicateGroup{
			Width:  k.width,
			Height: k.height,
			Digest: k.digest,
			Members: lo.Map(members, func(r *types.ImageRecord, _ int) string {
				return r.Identity()
			}),
		})
	}
	return groups
}

// exactPairs answers whether two records ended up in the same duplicate group
type exactPairs map[exactKey]bool

func newExactPairs(groups []types.DuplicateGroup) exactPairs {
	p := make(exactPairs, len(groups))
	for _, g := range groups {
		p[exactKey{width: g.Width, height: g.Height, digest: g.Digest}] = true
	}
	return p
}

func (p exactPairs) contains(a, b *types.ImageRecord) bool {
	ka := keyOf(a)
	return ka == keyOf(b) && p[ka]
}
