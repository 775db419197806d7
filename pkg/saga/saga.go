// Package saga 按顺序执行一组步骤,失败时逆序补偿已完成的步骤
//
// 订单的下单后处理(生成发票、发送邮件、标记已通知)使用它编排。
// 调用方可能整体重试一次失败的Saga,不可重复的副作用之后的步骤须自行吸收失败。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Step Saga中的一个步骤
// Action 与 Compensate 都可以为nil
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError 标识失败的步骤
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("步骤[%d:%s]执行失败: %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Saga 一次Saga执行
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
}

// NewSaga 创建Saga,timeout<=0表示不限时
func NewSaga(name string, timeout time.Duration) *Saga {
	return &Saga{
		name:    name,
		steps:   make([]Step, 0, 4),
		timeout: timeout,
	}
}

// Name 返回Saga名称
func (s *Saga) Name() string {
	return s.name
}

// AddStep 追加步骤,按添加顺序执行,按逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
	return s
}

// Execute 执行所有步骤
// 某步失败或超时后执行补偿,返回的错误同时包含步骤错误与补偿错误
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.executed = s.executed[:0]
	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			// 补偿使用独立的Context,避免补偿也因超时被取消
			return errors.Join(fmt.Errorf("saga %s 超时: %w", s.name, err), s.compensate(context.WithoutCancel(ctx)))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				stepErr := &StepError{Index: i, Name: step.Name, Err: err}
				return errors.Join(stepErr, s.compensate(context.WithoutCancel(ctx)))
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// Executed 返回已成功执行(且未被补偿)的步骤名
func (s *Saga) Executed() []string {
	names := make([]string, len(s.executed))
	for i, step := range s.executed {
		names[i] = step.Name
	}
	return names
}

// compensate 逆序补偿,单个补偿失败不影响后续补偿
func (s *Saga) compensate(ctx context.Context) error {
	var errs []error
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("补偿失败[步骤:%s]: %w", step.Name, err))
		}
	}
	s.executed = s.executed[:0]
	return errors.Join(errs...)
}
