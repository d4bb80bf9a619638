package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/veloria/rapport-backend/internal/domain"
	"github.com/veloria/rapport-backend/internal/pkg/dbctx"
	"github.com/veloria/rapport-backend/internal/pkg/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, messages []*types.Message) ([]*types.Message, error)
	GetByTurn(dbc dbctx.Context, sessionID uuid.UUID, turnIndex int) (*types.Message, error)
	// ListBySessionUpTo returns all messages of a session with
	// turn_index <= maxTurn, ascending. maxTurn < 0 means the whole session.
	ListBySessionUpTo(dbc dbctx.Context, sessionID uuid.UUID, maxTurn int) ([]*types.Message, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	CountByRole(dbc dbctx.Context, sessionID uuid.UUID, role string) (int64, error)
	NextTurnIndex(dbc dbctx.Context, sessionID uuid.UUID) (int, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{
		db:  db,
		log: baseLog.With("repo", "MessageRepo"),
	}
}

func (r *messageRepo) Create(dbc dbctx.Context, messages []*types.Message) ([]*types.Message, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(messages) == 0 {
		return []*types.Message{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) GetByTurn(dbc dbctx.Context, sessionID uuid.UUID, turnIndex int) (*types.Message, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sessionID == uuid.Nil {
		return nil, nil
	}
	var msg types.Message
	err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ? AND turn_index = ?", sessionID, turnIndex).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) ListBySessionUpTo(dbc dbctx.Context, sessionID uuid.UUID, maxTurn int) ([]*types.Message, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Message
	if sessionID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID)
	if maxTurn >= 0 {
		q = q.Where("turn_index <= ?", maxTurn)
	}
	if err := q.Order("turn_index ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// NextTurnIndex returns one past the highest turn_index in the session. The
// unique (session_id, turn_index) index catches concurrent appends.
func (r *messageRepo) NextTurnIndex(dbc dbctx.Context, sessionID uuid.UUID) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sessionID == uuid.Nil {
		return 0, nil
	}
	var max *int
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Select("MAX(turn_index)").
		Where("session_id = ?", sessionID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func (r *messageRepo) CountByRole(dbc dbctx.Context, sessionID uuid.UUID, role string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sessionID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("session_id = ? AND role = ?", sessionID, role).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
