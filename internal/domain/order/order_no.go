package order

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// orderSeq 进程内递增序号,起点随机以降低多实例间的碰撞
var orderSeq atomic.Uint32

func init() {
	orderSeq.Store(rand.Uint32())
}

// GenerateOrderNo 生成订单号
// 格式：ORD + 日期时间(秒) + 6位序号,如 ORD20241017153045932187
// 同一进程每秒100万单以内不重复;跨实例的碰撞由唯一索引发现,下单时换号重试
func GenerateOrderNo() string {
	return fmt.Sprintf("ORD%s%06d", time.Now().Format("20060102150405"), orderSeq.Add(1)%1000000)
}
