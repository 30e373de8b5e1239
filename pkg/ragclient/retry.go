package ragclient

import (
	"context"
	"time"
)

// WithRetry 以有界指数退避的方式执行 op。
// 失败时先分类（见 Classify）：不可重试或次数耗尽则立即返回分类后的错误，
// 否则等待 delay 后把 delay 翻倍再试。默认参数下等待序列为 1s、2s。
// 退避期间阻塞当前调用，但可被 ctx 取消。无抖动。
func WithRetry(ctx context.Context, op func() error, maxAttempts int, initialDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		apiErr := Classify(err)
		if !apiErr.Retryable || attempt >= maxAttempts {
			return apiErr
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Classify(ctx.Err())
		}
		delay *= 2
	}
}
