package scheduler

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/edboard/masterschedule/internal/domain"
)

// seedNamespace anchors the deterministic ids of the sections the
// schedule is seeded with (lunch and SPED-seminar), independent of any
// run seed: B1 requires exactly the same 8 seeded sections every time.
var seedNamespace = uuid.MustParse("8f14e45f-ceea-467e-b71b-ceeeb5427a4d")

func seededSectionID(name string) domain.ID {
	return domain.ID(uuid.NewSHA1(seedNamespace, []byte(name)))
}

// idGen mints deterministic, reproducible section ids for the sections
// created during placement. Per the DESIGN NOTES on randomness, each
// logical step (one per (student, course) demand attempt) gets its own
// PRNG seeded from (run seed, step index), rather than sharing one
// reseeded generator across lazy steps the way the source does.
type idGen struct {
	runSeed int64
}

func newIDGen(runSeed int64) *idGen {
	return &idGen{runSeed: runSeed}
}

// next derives a fresh id for logical step. Two calls with the same
// (runSeed, step) always produce the same id, and the id is still a
// well-formed random-version UUID as far as any consumer can tell.
func (g *idGen) next(step int64) domain.ID {
	mixed := g.runSeed*2654435761 + step*40503 + 1
	src := rand.NewSource(mixed)
	r := rand.New(src)
	u, err := uuid.NewRandomFromReader(r)
	if err != nil {
		// rand.Rand.Read never fails; this is unreachable in practice.
		panic(err)
	}
	return domain.ID(u)
}
