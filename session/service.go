package session

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/export"
	"github.com/dice-app/dice/feed"
	"github.com/dice-app/dice/model"
	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	SessionCodeLength     = 8
	ParticipantCodeLength = 8
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrSessionNotFound     = errors.New("session not found")
)

// Service runs sessions: it bootstraps them and walks participants through the
// page sequence. It is safe for concurrent use.
type Service struct {
	DB       *gorm.DB
	Progress utils.ProgressStore
	Loader   *feed.Loader
	Settings app_setting.SessionSettings
	Metrics  *Metrics

	// guards rnd, sessions are bootstrapped from concurrent requests
	m   sync.Mutex
	rnd *rand.Rand
}

func NewService(db *gorm.DB, progress utils.ProgressStore, loader *feed.Loader, settings app_setting.SessionSettings) *Service {
	return &Service{
		DB:       db,
		Progress: progress,
		Loader:   loader,
		Settings: settings,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the random source, tests use it for a fixed seed.
func (s *Service) WithRand(rnd *rand.Rand) *Service {
	s.rnd = rnd
	return s
}

// CreateSession loads the dataset of the named config once and bootstraps n
// participants from it. A non-positive n falls back to num_demo_participants.
// Nothing is persisted if loading or any assignment fails.
func (s *Service) CreateSession(ctx context.Context, configName string, n int) (*model.Session, error) {
	setting, err := s.Settings.Get(configName)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = setting.NumDemoParticipants
	}
	if n <= 0 {
		return nil, errors.Errorf("session config %s needs at least one participant", configName)
	}
	settingJson, err := json.Marshal(setting)
	if err != nil {
		return nil, errors.Wrap(err, "fail to marshal session setting")
	}

	s.m.Lock()
	defer s.m.Unlock()

	snapshot, err := feed.Prepare(ctx, s.Loader, setting.DataPath, setting.Delimiter, setting.ConditionCol, s.rnd)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to prepare feed of session config %s", configName)
	}

	session := &model.Session{
		Id:             uuid.New().String(),
		Code:           utils.RandomAlphanumericString(SessionCodeLength),
		ConfigName:     configName,
		Setting:        settingJson,
		FeedConditions: snapshot.ConditionsString(),
		CompletionCode: utils.StringPtr(setting.CompletionCode),
	}
	for i := 0; i < n; i++ {
		session.Participants = append(session.Participants, &model.Participant{
			Id:        uuid.New().String(),
			Code:      utils.RandomAlphanumericString(ParticipantCodeLength),
			SessionID: session.Id,
			IdInGroup: i + 1,
		})
	}
	if err := Bootstrap(snapshot, session.Participants, s.rnd); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to persist session")
	}

	s.Metrics.sessionCreated(configName)
	Logger.Log.WithFields(logrus.Fields{
		"session":      session.Code,
		"config":       configName,
		"participants": n,
		"conditions":   session.FeedConditions,
	}).Info("session created")
	return session, nil
}

// GetSession returns the session with the given code and its participants in
// in-group order.
func (s *Service) GetSession(ctx context.Context, code string) (*model.Session, error) {
	var session model.Session
	err := s.DB.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("id_in_group")
		}).
		Where("code = ?", code).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// participant loads a participant with its session and the session setting.
func (s *Service) participant(ctx context.Context, code string) (*model.Participant, app_setting.SessionSetting, error) {
	var p model.Participant
	err := s.DB.WithContext(ctx).Preload("Session").Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app_setting.SessionSetting{}, ErrParticipantNotFound
	}
	if err != nil {
		return nil, app_setting.SessionSetting{}, err
	}
	if p.Session == nil {
		return nil, app_setting.SessionSetting{}, ErrSessionNotFound
	}

	var setting app_setting.SessionSetting
	if err := json.Unmarshal(p.Session.Setting, &setting); err != nil {
		return nil, app_setting.SessionSetting{}, errors.Wrapf(err, "fail to decode setting of session %s", p.Session.Code)
	}
	return &p, setting.WithBuiltinDefaults(), nil
}

// Export returns the header and one row per participant of the session.
func (s *Service) Export(ctx context.Context, code string) ([][]string, error) {
	session, err := s.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	for _, p := range session.Participants {
		p.Session = session
	}
	return export.Rows(session.Participants), nil
}
