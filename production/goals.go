package production

import (
	"io"
	"log/slog"
	"maps"

	"github.com/TheBitDrifter/foundry/shape"
)

// GoalSource exposes the hub goal the checkers compare against.
type GoalSource interface {
	CurrentGoalKey() string
}

// HubGoals tracks level progression. Delivering the required number of the current goal shape
// while its level is active advances to the next level; after the last level the goal stays on
// it.
type HubGoals struct {
	levels    []Level
	goals     []*shape.Shape
	level     int
	progress  int
	delivered map[string]int
	completed bool
	logger    *slog.Logger
}

var _ GoalSource = &HubGoals{}

func NewHubGoals(settings Settings, cache *shape.Cache, logger *slog.Logger) (*HubGoals, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	goals := make([]*shape.Shape, len(settings.Levels))
	for i, level := range settings.Levels {
		s, err := cache.Intern(level.Shape)
		if err != nil {
			return nil, err
		}
		goals[i] = s
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HubGoals{
		levels:    settings.Levels,
		goals:     goals,
		delivered: make(map[string]int),
		logger:    logger,
	}, nil
}

func (h *HubGoals) CurrentGoal() shape.Shape {
	return *h.goals[h.level]
}

func (h *HubGoals) CurrentGoalKey() string {
	return h.goals[h.level].Key()
}

// Level is the 1-based current level.
func (h *HubGoals) Level() int {
	return h.level + 1
}

func (h *HubGoals) Completed() bool {
	return h.completed
}

// Delivered is the lifetime count of key.
func (h *HubGoals) Delivered(key string) int {
	return h.delivered[key]
}

// Progress counts goal shapes delivered since the current level started.
func (h *HubGoals) Progress() int {
	return h.progress
}

// Deliver counts s and reports whether it completed the current level.
func (h *HubGoals) Deliver(s shape.Shape) bool {
	key := s.Key()
	h.delivered[key]++
	if h.completed || key != h.CurrentGoalKey() {
		return false
	}
	h.progress++
	if h.progress < h.levels[h.level].Required {
		return false
	}
	h.logger.Info("level completed", "level", h.Level(), "goal", key)
	if h.level == len(h.levels)-1 {
		h.completed = true
		return true
	}
	h.level++
	h.progress = 0
	return true
}

// Restore sets progression from a checkpoint.
func (h *HubGoals) Restore(level, progress int, delivered map[string]int, completed bool) {
	h.level = min(max(level-1, 0), len(h.levels)-1)
	h.progress = max(progress, 0)
	h.delivered = maps.Clone(delivered)
	if h.delivered == nil {
		h.delivered = make(map[string]int)
	}
	h.completed = completed
}

// Snapshot returns a copy of the delivery counts.
func (h *HubGoals) Snapshot() map[string]int {
	return maps.Clone(h.delivered)
}
