package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"lms-progress/config"
	"lms-progress/internal/autosave"
	"lms-progress/internal/dto"
	"lms-progress/internal/model"
	"lms-progress/internal/repository"
	pkgerrors "lms-progress/pkg/errors"
)

var ErrEditValueInvalid = pkgerrors.New(pkgerrors.KindValidation, "编辑值格式错误")

// InlineEditService 管理端行内编辑业务接口
//
// 每个管理员对应一个编辑界面，同一时间只编辑一条记录的一个字段；
// 值变化后防抖自动保存，保存经由与学生操作相同的计数更新路径，保证状态推导一致。
// 编辑界面空闲超时后被回收，尚未触发的自动保存随之取消。
type InlineEditService interface {
	Start(ctx context.Context, adminID string, req *dto.StartEditRequest) (*dto.EditStateResponse, error)
	Update(ctx context.Context, adminID string, raw json.RawMessage) (*dto.EditStateResponse, error)
	Save(ctx context.Context, adminID string) (*dto.EditStateResponse, error)
	Cancel(ctx context.Context, adminID string) error
	State(ctx context.Context, adminID string) (*dto.EditStateResponse, error)
}

// editSurface 单个管理员的编辑界面；controller 绑定到一条进度记录
type editSurface struct {
	mu         sync.Mutex
	progressID string
	ctrl       *autosave.Controller
}

type inlineEditService struct {
	repo     *repository.Repository
	logger   *zap.Logger
	debounce time.Duration
	surfaces *gocache.Cache
	schedule autosave.ScheduleFunc
}

// NewInlineEditService 创建 InlineEditService 实例
func NewInlineEditService(repo *repository.Repository, cfg *config.ProgressConfig, logger *zap.Logger) InlineEditService {
	return newInlineEditService(repo, cfg, logger, nil)
}

func newInlineEditService(repo *repository.Repository, cfg *config.ProgressConfig, logger *zap.Logger, schedule autosave.ScheduleFunc) *inlineEditService {
	ttl := cfg.EditSessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	surfaces := gocache.New(ttl, ttl/2)
	surfaces.OnEvicted(func(adminID string, v interface{}) {
		if surf, ok := v.(*editSurface); ok {
			surf.mu.Lock()
			if surf.ctrl != nil {
				surf.ctrl.CancelEdit()
			}
			surf.mu.Unlock()
		}
		logger.Debug("行内编辑会话已回收", zap.String("admin_id", adminID))
	})

	return &inlineEditService{
		repo:     repo,
		logger:   logger,
		debounce: cfg.AutosaveDebounce,
		surfaces: surfaces,
		schedule: schedule,
	}
}

// surface 取得管理员的编辑界面并刷新过期时间
func (s *inlineEditService) surface(adminID string, create bool) *editSurface {
	if v, ok := s.surfaces.Get(adminID); ok {
		s.surfaces.SetDefault(adminID, v)
		return v.(*editSurface)
	}
	if !create {
		return nil
	}
	surf := &editSurface{}
	for {
		if err := s.surfaces.Add(adminID, surf, gocache.DefaultExpiration); err == nil {
			return surf
		}
		// 并发请求已先创建，使用已存在的界面
		if v, ok := s.surfaces.Get(adminID); ok {
			return v.(*editSurface)
		}
	}
}

// ────────────────────── Start ──────────────────────

func (s *inlineEditService) Start(ctx context.Context, adminID string, req *dto.StartEditRequest) (*dto.EditStateResponse, error) {
	rec, err := getProgress(ctx, s.repo, s.logger, req.ProgressID)
	if err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, s.logger, rec.CourseID)
	if err != nil {
		return nil, err
	}

	surf := s.surface(adminID, true)
	surf.mu.Lock()
	defer surf.mu.Unlock()

	if surf.ctrl != nil && surf.progressID != rec.ProgressID {
		// 切换到另一条记录：先结束当前编辑
		if err := s.resolve(ctx, surf.ctrl); err != nil {
			return s.toState(surf), err
		}
		surf.ctrl = nil
	}
	if surf.ctrl == nil {
		surf.ctrl = s.newController(adminID, rec.ProgressID, course)
		surf.progressID = rec.ProgressID
	}

	if err := surf.ctrl.StartEdit(ctx, req.Field, fieldValue(rec, req.Field)); err != nil {
		return s.toState(surf), err
	}
	return s.toState(surf), nil
}

// resolve 当前编辑有合法改动则保存，否则丢弃
func (s *inlineEditService) resolve(ctx context.Context, ctrl *autosave.Controller) error {
	st := ctrl.State()
	if st.Active && st.Dirty && st.ValidationError == "" {
		return ctrl.Save(ctx)
	}
	ctrl.CancelEdit()
	return nil
}

func (s *inlineEditService) newController(adminID, progressID string, course *model.Course) *autosave.Controller {
	return autosave.NewController(autosave.Options{
		Debounce:   s.debounce,
		Validators: autosave.ProgressValidators(course.RequiredSessions),
		Save: func(ctx context.Context, field string, value interface{}) error {
			return s.persist(ctx, adminID, progressID, field, value)
		},
		Logger:   s.logger,
		Schedule: s.schedule,
		OnAutoSave: func(field string, err error) {
			if err == nil {
				s.logger.Info("行内编辑自动保存",
					zap.String("admin_id", adminID),
					zap.String("progress_id", progressID),
					zap.String("field", field),
				)
			}
		},
	})
}

// persist 重新读取记录后写入字段，经由计数更新路径推进状态
func (s *inlineEditService) persist(ctx context.Context, adminID, progressID, field string, value interface{}) error {
	rec, err := getProgress(ctx, s.repo, s.logger, progressID)
	if err != nil {
		return err
	}
	course, err := getCourse(ctx, s.repo, s.logger, rec.CourseID)
	if err != nil {
		return err
	}
	_, err = applyCounterUpdate(ctx, s.repo, rec, course, adminID, func(r *model.ProgressRecord) {
		switch field {
		case autosave.FieldCompletedSessions:
			r.CompletedSessions = value.(int)
		case autosave.FieldProjectsSubmitted:
			r.ProjectsSubmitted = value.(int)
		case autosave.FieldProjectLinks:
			r.ProjectLinks = append(r.ProjectLinks[:0:0], value.([]string)...)
		}
	})
	if err != nil {
		s.logger.Error("行内编辑保存失败", zap.String("progress_id", progressID), zap.String("field", field), zap.Error(err))
	}
	return err
}

// ────────────────────── Update ──────────────────────

// Update 校验失败不返回错误，错误信息体现在编辑状态中
func (s *inlineEditService) Update(_ context.Context, adminID string, raw json.RawMessage) (*dto.EditStateResponse, error) {
	surf := s.surface(adminID, false)
	if surf == nil {
		return nil, autosave.ErrNoActiveEdit
	}
	surf.mu.Lock()
	defer surf.mu.Unlock()
	if surf.ctrl == nil || !surf.ctrl.State().Active {
		return nil, autosave.ErrNoActiveEdit
	}

	value, err := decodeFieldValue(surf.ctrl.State().Field, raw)
	if err != nil {
		return s.toState(surf), err
	}
	err = surf.ctrl.UpdateValue(value)
	if errors.Is(err, autosave.ErrNoActiveEdit) {
		return nil, err
	}
	if err != nil && !pkgerrors.Is(err, pkgerrors.KindValidation) {
		return s.toState(surf), err
	}
	return s.toState(surf), nil
}

// ────────────────────── Save / Cancel / State ──────────────────────

func (s *inlineEditService) Save(ctx context.Context, adminID string) (*dto.EditStateResponse, error) {
	surf := s.surface(adminID, false)
	if surf == nil {
		return nil, autosave.ErrNoActiveEdit
	}
	surf.mu.Lock()
	defer surf.mu.Unlock()
	if surf.ctrl == nil {
		return nil, autosave.ErrNoActiveEdit
	}

	if err := surf.ctrl.Save(ctx); err != nil {
		return s.toState(surf), err
	}
	return s.toState(surf), nil
}

func (s *inlineEditService) Cancel(_ context.Context, adminID string) error {
	surf := s.surface(adminID, false)
	if surf == nil {
		return nil
	}
	surf.mu.Lock()
	defer surf.mu.Unlock()
	if surf.ctrl != nil {
		surf.ctrl.CancelEdit()
	}
	return nil
}

func (s *inlineEditService) State(_ context.Context, adminID string) (*dto.EditStateResponse, error) {
	surf := s.surface(adminID, false)
	if surf == nil {
		return &dto.EditStateResponse{}, nil
	}
	surf.mu.Lock()
	defer surf.mu.Unlock()
	return s.toState(surf), nil
}

func (s *inlineEditService) toState(surf *editSurface) *dto.EditStateResponse {
	if surf.ctrl == nil {
		return &dto.EditStateResponse{}
	}
	st := surf.ctrl.State()
	resp := &dto.EditStateResponse{
		Active:          st.Active,
		Field:           st.Field,
		Initial:         st.Initial,
		Value:           st.Value,
		Dirty:           st.Dirty,
		Pending:         st.Pending,
		ValidationError: st.ValidationError,
		SaveError:       st.SaveError,
	}
	if st.Active {
		resp.ProgressID = surf.progressID
	}
	return resp
}

// ── 字段取值与解析 ──

func fieldValue(rec *model.ProgressRecord, field string) interface{} {
	switch field {
	case autosave.FieldCompletedSessions:
		return rec.CompletedSessions
	case autosave.FieldProjectsSubmitted:
		return rec.ProjectsSubmitted
	case autosave.FieldProjectLinks:
		links := []string(rec.ProjectLinks)
		if links == nil {
			links = []string{}
		}
		return append([]string{}, links...)
	}
	return nil
}

func decodeFieldValue(field string, raw json.RawMessage) (interface{}, error) {
	switch field {
	case autosave.FieldCompletedSessions, autosave.FieldProjectsSubmitted:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, ErrEditValueInvalid
		}
		return n, nil
	case autosave.FieldProjectLinks:
		var links []string
		if err := json.Unmarshal(raw, &links); err != nil {
			return nil, ErrEditValueInvalid
		}
		if links == nil {
			links = []string{}
		}
		return links, nil
	}
	return nil, autosave.ErrUnknownField
}
