package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/wercia/zeeland-agents/pkg/domain"
	"github.com/wercia/zeeland-agents/pkg/logger"
)

type ScenarioRecordRepository interface {
	Save(ctx context.Context, userID string, data []byte) error
	GetByUserID(ctx context.Context, userID string) ([]byte, error)
}

type AnalyticsLogger interface {
	LogEvent(name string, payload map[string]any)
}

var scenarioTitleRe = regexp.MustCompile(`^Scenario (\d+)$`)

// scenarioService is the single source of truth for the scenario list and
// the active scenario pointer. All mutations go through it; each one
// re-serializes the list and writes through to the repository. The mutex is
// the explicit stand-in for the single-threaded event loop this state model
// assumes.
type scenarioService struct {
	repo      ScenarioRecordRepository
	analytics AnalyticsLogger

	mu        sync.Mutex
	userID    string
	scenarios []domain.Scenario
	currentID string
}

func NewScenarioService(repo ScenarioRecordRepository, analytics AnalyticsLogger) *scenarioService {
	return &scenarioService{
		repo:      repo,
		analytics: analytics,
	}
}

// Load reads the persisted scenarios for userID, migrating each one by
// merging default web-search config and defaulting a missing profile. When
// nothing usable is persisted, exactly one default scenario is synthesized.
func (s *scenarioService) Load(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.scenarios = nil
	s.currentID = ""
	if userID == "" {
		return
	}

	loaded := s.loadPersisted(ctx, userID)
	if len(loaded) == 0 {
		sc := newScenario("Scenario 1", domain.UserProfileAmbtenaar)
		s.scenarios = []domain.Scenario{sc}
		s.currentID = sc.ID
		s.persistLocked(ctx)
		return
	}

	for i := range loaded {
		migrateScenario(&loaded[i])
	}
	s.scenarios = loaded
	s.currentID = loaded[0].ID
}

// loadPersisted degrades every failure, including a corrupt blob, to "no
// scenarios found".
func (s *scenarioService) loadPersisted(ctx context.Context, userID string) []domain.Scenario {
	data, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "loading scenarios", "userID", userID, logger.Err(err))
		}
		return nil
	}

	var scenarios []domain.Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		slog.WarnContext(ctx, "decoding persisted scenarios, starting fresh", "userID", userID, logger.Err(err))
		return nil
	}

	return scenarios
}

func migrateScenario(sc *domain.Scenario) {
	merged := domain.DefaultWebSearchConfig()
	for id, enabled := range sc.AgentWebSearchConfig {
		merged[id] = enabled
	}
	sc.AgentWebSearchConfig = merged

	if sc.UserProfile == "" {
		sc.UserProfile = domain.UserProfileAmbtenaar
	}
}

func newScenario(title string, profile domain.UserProfile) domain.Scenario {
	return domain.Scenario{
		ID:                   "scenario_" + uuid.NewString(),
		Title:                title,
		Chat:                 []domain.ChatMessage{},
		SelectedAgentIDs:     []string{domain.DefaultAgentID},
		AgentWebSearchConfig: domain.DefaultWebSearchConfig(),
		UserProfile:          profile,
	}
}

func (s *scenarioService) All() []domain.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.scenarios, func(sc domain.Scenario, _ int) domain.Scenario {
		return cloneScenario(sc)
	})
}

func (s *scenarioService) Current() (domain.Scenario, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.findLocked(s.currentID)
	if !ok {
		return domain.Scenario{}, false
	}
	return cloneScenario(sc), true
}

func (s *scenarioService) findLocked(id string) (domain.Scenario, bool) {
	return lo.Find(s.scenarios, func(sc domain.Scenario) bool { return sc.ID == id })
}

// cloneScenario detaches the slice and map state so a snapshot handed out by
// an accessor never observes, or causes, mutation of the stored scenario.
func cloneScenario(sc domain.Scenario) domain.Scenario {
	sc.Chat = append([]domain.ChatMessage{}, sc.Chat...)
	if sc.SelectedAgentIDs != nil {
		sc.SelectedAgentIDs = append([]string{}, sc.SelectedAgentIDs...)
	}
	if sc.AgentWebSearchConfig != nil {
		cfg := make(map[string]bool, len(sc.AgentWebSearchConfig))
		for id, enabled := range sc.AgentWebSearchConfig {
			cfg[id] = enabled
		}
		sc.AgentWebSearchConfig = cfg
	}
	return sc
}

// Select moves the active pointer; unknown ids are a no-op.
func (s *scenarioService) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(id); ok {
		s.currentID = id
	}
}

// Add creates a scenario with a collision-free "Scenario N" title, inheriting
// the profile of the current scenario, and makes it active.
func (s *scenarioService) Add(ctx context.Context) domain.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := domain.UserProfileAmbtenaar
	if cur, ok := s.findLocked(s.currentID); ok {
		profile = cur.UserProfile
	}

	sc := newScenario(s.nextTitleLocked(), profile)
	s.scenarios = append(s.scenarios, sc)
	s.currentID = sc.ID
	s.persistLocked(ctx)

	s.analytics.LogEvent("scenario_created", map[string]any{"userId": s.userID, "scenarioId": sc.ID})

	return cloneScenario(sc)
}

// nextTitleLocked picks N as max(count+1, highest numeric suffix+1) so titles
// never collide after deletions.
func (s *scenarioService) nextTitleLocked() string {
	maxNum := 0
	for _, sc := range s.scenarios {
		if m := scenarioTitleRe.FindStringSubmatch(sc.Title); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
				maxNum = n
			}
		}
	}

	n := len(s.scenarios) + 1
	if maxNum+1 > n {
		n = maxNum + 1
	}

	return fmt.Sprintf("Scenario %d", n)
}

// Delete removes a scenario. Deleting the last remaining scenario is
// rejected; deleting the active one moves the pointer to the first remaining
// scenario in list order.
func (s *scenarioService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.scenarios) <= 1 {
		return domain.ErrLastScenario
	}
	if _, ok := s.findLocked(id); !ok {
		return domain.ErrNotFound
	}

	wasCurrent := s.currentID == id
	s.scenarios = lo.Reject(s.scenarios, func(sc domain.Scenario, _ int) bool { return sc.ID == id })
	if wasCurrent {
		s.currentID = s.scenarios[0].ID
	}
	s.persistLocked(ctx)

	s.analytics.LogEvent("scenario_deleted", map[string]any{"userId": s.userID, "scenarioId": id})

	return nil
}

// Rename sets the title verbatim; trimming and non-empty validation are the
// caller's responsibility.
func (s *scenarioService) Rename(ctx context.Context, id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scenarios {
		if s.scenarios[i].ID == id {
			s.scenarios[i].Title = title
			s.persistLocked(ctx)
			s.analytics.LogEvent("scenario_renamed", map[string]any{"userId": s.userID, "scenarioId": id, "newTitle": title})
			return
		}
	}
}

// UpdateCurrent applies mutate to the active scenario.
func (s *scenarioService) UpdateCurrent(ctx context.Context, mutate func(*domain.Scenario)) {
	s.mu.Lock()
	id := s.currentID
	s.mu.Unlock()

	s.UpdateByID(ctx, id, mutate)
}

// UpdateByID applies mutate to the scenario with the given id, replacing it
// wholesale (copy-on-write). Updates always target the captured id, never
// "whichever scenario is current now", so an in-flight operation keeps
// writing to the right scenario after the user switches away.
func (s *scenarioService) UpdateByID(ctx context.Context, id string, mutate func(*domain.Scenario)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scenarios {
		if s.scenarios[i].ID == id {
			sc := s.scenarios[i]
			mutate(&sc)
			sc.ID = id // ids are immutable
			s.scenarios[i] = sc
			s.persistLocked(ctx)
			return
		}
	}
}

// persistLocked writes the full list through to the repository. Write
// failures are logged and dropped; the in-memory state stays authoritative.
func (s *scenarioService) persistLocked(ctx context.Context) {
	if s.userID == "" || len(s.scenarios) == 0 {
		return
	}

	data, err := json.Marshal(s.scenarios)
	if err != nil {
		slog.ErrorContext(ctx, "serializing scenarios", logger.Err(err))
		return
	}

	if err := s.repo.Save(ctx, s.userID, data); err != nil {
		slog.WarnContext(ctx, "persisting scenarios", "userID", s.userID, logger.Err(err))
	}
}
