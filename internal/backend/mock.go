package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"gridsandbox.ai/internal/protocol"
)

// Mock picks a seeded-random member of the legal set. It never fails, which
// makes it suitable for tests and offline smoke runs.
type Mock struct {
	rng *rand.Rand
}

func newMock(seed int64) *Mock {
	return &Mock{rng: rand.New(rand.NewSource(seed))}
}

func (m *Mock) Kind() string { return KindMock }

func (m *Mock) RequestAction(_ context.Context, req Request) (Result, error) {
	if len(req.LegalActions) == 0 {
		return Result{Action: protocol.Wait(), Notes: "empty legal set; waited"}, nil
	}
	pick := req.LegalActions[m.rng.Intn(len(req.LegalActions))]
	switch pick.Kind {
	case protocol.ActionMove:
		pick = protocol.Move(pick.Direction)
	case protocol.ActionTalk:
		alias := pick.TargetTitle
		if alias == "" {
			alias = pick.Target
		}
		pick = protocol.Talk(pick.Target, fmt.Sprintf("Hey %s, let's keep moving!", alias))
	default:
		pick = protocol.Wait()
	}
	raw, _ := json.Marshal(pick)
	return Result{Action: pick, RawResponse: string(raw)}, nil
}
