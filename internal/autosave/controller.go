// Package autosave 行内编辑控制器：一次只编辑一个字段，值变化后防抖自动保存。
//
// 每次值变化都会递增编辑代次（generation）并取消旧的定时器；
// 定时器触发时只有代次仍为最新的保存才会执行，被后续编辑取代的保存直接丢弃。
// 所有保存串行执行，保证较新的值不会被较旧的写入覆盖。
package autosave

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "lms-progress/pkg/errors"
)

// DefaultDebounce 默认防抖间隔
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrNoActiveEdit = pkgerrors.New(pkgerrors.KindValidation, "当前没有进行中的编辑")
	ErrUnknownField = pkgerrors.New(pkgerrors.KindValidation, "字段不支持行内编辑")
)

// Validator 字段校验函数，返回 nil 表示通过
type Validator func(value interface{}) error

// Saver 持久化函数
type Saver func(ctx context.Context, field string, value interface{}) error

// Timer 可取消的定时任务
type Timer interface {
	Stop() bool
}

// ScheduleFunc 在 d 之后执行 f，返回可取消的定时任务
type ScheduleFunc func(d time.Duration, f func()) Timer

func defaultSchedule(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options 控制器配置
type Options struct {
	Debounce   time.Duration
	Validators map[string]Validator
	Save       Saver
	Logger     *zap.Logger

	// Schedule 默认使用 time.AfterFunc，测试中可替换
	Schedule ScheduleFunc
	// OnAutoSave 定时器触发的保存完成后回调（成功时 err 为 nil）
	OnAutoSave func(field string, err error)
}

// State 当前编辑状态快照
type State struct {
	Active          bool        `json:"active"`
	Field           string      `json:"field,omitempty"`
	Initial         interface{} `json:"initial,omitempty"`
	Value           interface{} `json:"value,omitempty"`
	Dirty           bool        `json:"dirty"`
	Pending         bool        `json:"pending"` // 有尚未触发的自动保存
	ValidationError string      `json:"validation_error,omitempty"`
	SaveError       string      `json:"save_error,omitempty"`
	Generation      uint64      `json:"generation"`
}

type session struct {
	field         string
	initial       interface{}
	value         interface{}
	validationErr error
	saveErr       error
}

func (s *session) dirty() bool {
	return !reflect.DeepEqual(s.value, s.initial)
}

// Controller 单个编辑界面的行内编辑控制器，并发安全
type Controller struct {
	opts Options

	mu         sync.Mutex
	current    *session
	generation uint64
	timer      Timer

	// saveMu 保证同一控制器的保存串行执行
	saveMu sync.Mutex
}

// NewController 创建控制器
func NewController(opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Schedule == nil {
		opts.Schedule = defaultSchedule
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{opts: opts}
}

// ────────────────────── StartEdit ──────────────────────

// StartEdit 开始编辑字段。若已有编辑进行中，先处理旧编辑：
// 有改动且校验通过则保存，否则丢弃。旧编辑保存失败时返回错误，旧编辑保持打开。
func (c *Controller) StartEdit(ctx context.Context, field string, initial interface{}) error {
	if _, ok := c.opts.Validators[field]; !ok {
		return ErrUnknownField
	}

	c.mu.Lock()
	prev := c.current
	resolveByDiscard := prev == nil || !prev.dirty() || prev.validationErr != nil
	c.mu.Unlock()

	if !resolveByDiscard {
		if err := c.Save(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.generation++
	c.current = &session{field: field, initial: initial, value: initial}
	return nil
}

// ────────────────────── UpdateValue ──────────────────────

// UpdateValue 更新本地值并重新校验，随后重启自动保存定时器。
// 校验失败只阻止保存，不阻止继续编辑；返回值为校验结果。
func (c *Controller) UpdateValue(value interface{}) error {
	c.mu.Lock()
	s := c.current
	if s == nil {
		c.mu.Unlock()
		return ErrNoActiveEdit
	}
	s.value = value
	s.validationErr = c.opts.Validators[s.field](value)
	s.saveErr = nil
	c.generation++
	validationErr := s.validationErr
	c.mu.Unlock()

	if err := c.AutoSave(); err != nil && validationErr == nil {
		return err
	}
	return validationErr
}

// ────────────────────── AutoSave ──────────────────────

// AutoSave 取消旧定时器并重新开始防抖计时。
// 当前值校验失败或与初始值相同时不安排保存。
func (c *Controller) AutoSave() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil {
		return ErrNoActiveEdit
	}
	c.stopTimerLocked()
	if s.validationErr != nil || !s.dirty() {
		return nil
	}

	gen := c.generation
	c.timer = c.opts.Schedule(c.opts.Debounce, func() {
		c.fire(gen)
	})
	return nil
}

func (c *Controller) fire(gen uint64) {
	field, err, ran := c.saveGeneration(context.Background(), gen, false)
	if !ran {
		return
	}
	if err != nil {
		c.opts.Logger.Warn("自动保存失败", zap.String("field", field), zap.Error(err))
	}
	if c.opts.OnAutoSave != nil {
		c.opts.OnAutoSave(field, err)
	}
}

// ────────────────────── Save ──────────────────────

// Save 立即保存当前值并结束编辑。
// 值与开始编辑时相同则直接成功，不调用 Saver；
// 保存失败时编辑保持打开，错误记录在状态中，可重试或放弃。
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoActiveEdit
	}
	c.stopTimerLocked()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	_, err, _ := c.saveGeneration(ctx, gen, true)
	return err
}

// saveGeneration 执行代次为 gen 的保存；代次已过期时 ran=false
func (c *Controller) saveGeneration(ctx context.Context, gen uint64, closeOnSuccess bool) (field string, err error, ran bool) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	s := c.current
	if s == nil || gen != c.generation {
		c.mu.Unlock()
		return "", nil, false
	}
	if !closeOnSuccess {
		// 已触发的定时器
		c.timer = nil
	}
	field, value, validationErr, dirty := s.field, s.value, s.validationErr, s.dirty()
	c.mu.Unlock()

	if validationErr != nil {
		return field, validationErr, true
	}

	if dirty {
		err = c.opts.Save(ctx, field, value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != s {
		// 保存期间编辑已被取消或替换
		return field, err, true
	}
	if err != nil {
		s.saveErr = err
		return field, err, true
	}
	s.initial = value
	s.saveErr = nil
	if closeOnSuccess && gen == c.generation {
		c.current = nil
	}
	return field, nil, true
}

// ────────────────────── CancelEdit ──────────────────────

// CancelEdit 放弃当前编辑并取消尚未触发的自动保存
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.generation++
	c.current = nil
}

// State 返回当前编辑状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{Generation: c.generation, Pending: c.timer != nil}
	s := c.current
	if s == nil {
		return st
	}
	st.Active = true
	st.Field = s.field
	st.Initial = s.initial
	st.Value = s.value
	st.Dirty = s.dirty()
	if s.validationErr != nil {
		st.ValidationError = s.validationErr.Error()
	}
	if s.saveErr != nil {
		st.SaveError = s.saveErr.Error()
	}
	return st
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
