package jobs

import (
	"context"
	"log"

	"github.com/olahol/melody"
	"github.com/robfig/cron/v3"
)

// QueueFlusher định nghĩa interface cho việc đẩy hàng đợi sync lên remote
type QueueFlusher interface {
	FlushQueue(ctx context.Context, m *melody.Melody) error
}

var queueFlusher QueueFlusher

// SetQueueFlusher thiết lập implementation cho QueueFlusher
func SetQueueFlusher(f QueueFlusher) {
	queueFlusher = f
}

// InitCronJobs khởi tạo các cron jobs
func InitCronJobs(c *cron.Cron, m *melody.Melody) error {
	// Flush hàng đợi sync mỗi 2 phút, bắt các thao tác bị kẹt lại khi mạng
	// chập chờn giữa hai request
	_, err := c.AddFunc("*/2 * * * *", func() {
		if queueFlusher == nil {
			return
		}
		if err := queueFlusher.FlushQueue(context.Background(), m); err != nil {
			log.Printf("Lỗi khi flush hàng đợi sync: %v", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Println("Cron jobs initialized successfully")
	return nil
}
