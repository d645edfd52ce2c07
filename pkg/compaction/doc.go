// Package compaction 提供对话上下文窗口的压缩能力。
//
// 长时间运行的会话会不断累积消息，最终超出模型的上下文窗口。
// 本包实现了一组可互换的压缩策略和一个上下文管理器，
// 在 Token 数超过触发阈值时将消息日志缩减到目标预算以内。
// 主要功能包括：
//
//   - Token 计数（tiktoken 精确计数和按字符估算两种实现）
//   - 五种压缩策略：滑动窗口、选择性修剪、历史摘要、重要性评分、混合
//   - 工具调用与工具结果的原子配对（成对保留或成对移除）
//   - 最近 N 轮对话和开头系统消息的保留
//   - 压缩结果的指标与结构化日志
//
// # 基本用法
//
// 创建管理器并在阈值触发时压缩：
//
//	manager, err := compaction.NewManager(config.CompactionConfig{
//	    Strategy:               config.StrategySlidingWindow,
//	    TriggerThresholdTokens: 8000,
//	    TargetTokens:           4000,
//	    PreserveRecentTurns:    2,
//	})
//
//	manager.Append(msgs...)
//	if manager.ShouldCompact() {
//	    result, err := manager.Compact(ctx)
//	    // result.RemovedCount, result.TokensBefore, result.TokensAfter
//	}
//
// # 模型后端策略
//
// summarize_older 和 importance_scoring 需要一个模型后端：
//
//	backend, err := llm.NewOpenAI(
//	    llm.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    llm.WithModel("gpt-4o-mini"),
//	)
//
//	counter, err := compaction.NewTiktokenCounter(compaction.WithModel("gpt-4o-mini"))
//
//	manager, err := compaction.NewManager(cfg,
//	    compaction.WithBackend(backend),
//	    compaction.WithTokenCounter(counter),
//	)
//
// 后端调用失败时错误原样返回，消息日志保持不变。
//
// # 策略契约
//
// 所有策略遵循同一契约：
//
//   - 日志已在目标以内时是无操作（幂等）
//   - 压缩后的 Token 数不超过压缩前
//   - 最近保留区内的消息原样保留
//   - 工具调用及其结果要么都保留要么都移除，绝不拆散
//
// 混合策略按固定顺序串联子策略（默认先选择性修剪再滑动窗口），
// 每步之后重新测量，一旦达到目标立即停止。
package compaction
