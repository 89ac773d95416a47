// 随机数引擎，包装了golang.org/x/exp/rand，提供了一些常用的随机数生成方法
package randengine

import (
	"flag"
	"log"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可注入、可复现的随机数生成功能
// 说明：所有生成器与事件合成器共用同一引擎，整个运行过程单线程使用，不做加锁
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按给定概率分布生成随机数
// 功能：根据权重数组生成离散分布的随机数
// 参数：weight-权重数组，每个元素表示对应索引的概率权重
// 返回：随机生成的索引值（0到len(weight)-1）
// 算法说明：
// 1. 计算总权重
// 2. 在[0, 总权重)范围内生成随机数
// 3. 累积权重直到超过随机数，返回对应索引
// 说明：权重全为0时panic，调用方需保证权重表已经过校验
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 生成[a, b)范围内均匀分布的浮点数
func (e *Engine) Uniform(a, b float64) float64 {
	return a + (b-a)*e.Float64()
}

// IntRange 生成[a, b]范围内均匀分布的整数（包含两端）
func (e *Engine) IntRange(a, b int) int {
	if b <= a {
		return a
	}
	return a + e.Intn(b-a+1)
}

// Sample 从[0, n)中无放回地抽取k个下标
// 功能：部分Fisher-Yates洗牌，结果顺序即抽样顺序
// 参数：n-总体大小，k-抽样数量（超过n时按n处理）
// 返回：长度为min(k, n)的下标切片
func (e *Engine) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return []int{}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + e.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// Choice 从切片中均匀随机选取一个元素，切片不能为空
func Choice[T any](e *Engine, items []T) T {
	return items[e.Intn(len(items))]
}
