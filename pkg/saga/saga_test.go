package saga

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestSaga_Execute_Success 所有步骤成功
func TestSaga_Execute_Success(t *testing.T) {
	executed := make([]string, 0)

	s := NewSaga("notify-order", 5*time.Second)
	s.AddStep("生成发票",
		func(ctx context.Context) error {
			executed = append(executed, "生成发票")
			return nil
		}, nil).
		AddStep("发送邮件",
			func(ctx context.Context) error {
				executed = append(executed, "发送邮件")
				return nil
			}, nil)

	if err := s.Execute(context.Background()); err != nil {
		t.Fatalf("Saga执行失败: %v", err)
	}

	if len(executed) != 2 || executed[0] != "生成发票" || executed[1] != "发送邮件" {
		t.Errorf("执行顺序错误: %v", executed)
	}
	if got := s.Executed(); len(got) != 2 {
		t.Errorf("期望记录2个已执行步骤，实际%v", got)
	}
}

// TestSaga_Execute_FailureAndCompensate 步骤失败触发逆序补偿
func TestSaga_Execute_FailureAndCompensate(t *testing.T) {
	executed := make([]string, 0)
	record := func(name string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			executed = append(executed, name)
			return nil
		}
	}

	s := NewSaga("notify-order", 5*time.Second)
	s.AddStep("生成发票", record("生成发票"), record("删除发票"))
	s.AddStep("上传附件", record("上传附件"), record("删除附件"))
	s.AddStep("发送邮件",
		func(ctx context.Context) error {
			executed = append(executed, "发送邮件")
			return errors.New("smtp unavailable")
		},
		record("撤回邮件"),
	)

	err := s.Execute(context.Background())
	if err == nil {
		t.Fatal("Saga应该失败但返回成功")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("期望StepError，实际%T: %v", err, err)
	}
	if stepErr.Name != "发送邮件" || stepErr.Index != 2 {
		t.Errorf("失败步骤错误: %+v", stepErr)
	}

	expected := []string{"生成发票", "上传附件", "发送邮件", "删除附件", "删除发票"}
	if len(executed) != len(expected) {
		t.Fatalf("期望执行%v，实际%v", expected, executed)
	}
	for i, step := range expected {
		if executed[i] != step {
			t.Errorf("步骤%d期望'%s'，实际'%s'", i, step, executed[i])
		}
	}
	if len(s.Executed()) != 0 {
		t.Errorf("补偿后不应保留已执行步骤: %v", s.Executed())
	}
}

// TestSaga_Execute_CompensationErrorsJoined 补偿失败也会返回
func TestSaga_Execute_CompensationErrorsJoined(t *testing.T) {
	compensateErr := errors.New("cleanup failed")

	s := NewSaga("notify-order", 0)
	s.AddStep("a", func(ctx context.Context) error { return nil }, func(ctx context.Context) error { return compensateErr })
	s.AddStep("b", func(ctx context.Context) error { return errors.New("boom") }, nil)

	err := s.Execute(context.Background())
	if !errors.Is(err, compensateErr) {
		t.Errorf("期望返回补偿错误，实际%v", err)
	}
}

// TestSaga_Execute_Timeout 超时触发补偿
func TestSaga_Execute_Timeout(t *testing.T) {
	executed := make([]string, 0)

	s := NewSaga("notify-order", 100*time.Millisecond)
	s.AddStep("快速步骤",
		func(ctx context.Context) error {
			executed = append(executed, "快速步骤")
			return nil
		},
		func(ctx context.Context) error {
			if ctx.Err() != nil {
				t.Error("补偿不应使用已取消的Context")
			}
			executed = append(executed, "快速步骤补偿")
			return nil
		},
	)
	s.AddStep("慢速步骤",
		func(ctx context.Context) error {
			select {
			case <-time.After(2 * time.Second):
				executed = append(executed, "慢速步骤")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, nil)

	err := s.Execute(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("期望超时错误，实际%v", err)
	}

	if executed[len(executed)-1] != "快速步骤补偿" {
		t.Errorf("期望最后一步是补偿，实际: %v", executed)
	}
}

// TestSaga_Execute_Reusable 同一Saga可以重复执行(重试场景)
func TestSaga_Execute_Reusable(t *testing.T) {
	attempts := 0
	s := NewSaga("retry", time.Second)
	s.AddStep("flaky", func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("first attempt fails")
		}
		return nil
	}, nil)

	if err := s.Execute(context.Background()); err == nil {
		t.Fatal("第一次执行应该失败")
	}
	if err := s.Execute(context.Background()); err != nil {
		t.Fatalf("第二次执行应该成功: %v", err)
	}
	if attempts != 2 {
		t.Errorf("期望执行2次，实际%d次", attempts)
	}
}

func BenchmarkSaga_Execute(b *testing.B) {
	s := NewSaga("bench", 5*time.Second)
	s.AddStep("步骤1", func(ctx context.Context) error { return nil }, nil)
	s.AddStep("步骤2", func(ctx context.Context) error { return nil }, nil)
	s.AddStep("步骤3", func(ctx context.Context) error { return nil }, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Execute(context.Background())
	}
}
