package domain

import (
	"fmt"
	"time"
)

// for debug
func (c *Capsule) String() string {
	openDate := "none"
	if c.OpenDate != nil {
		openDate = c.OpenDate.Format(time.RFC3339)
	}
	return fmt.Sprintf("[id:%s, title:%q, visibility:%s, openDate:%s, senders:%v, receivers:%v, images:%d]",
		c.Id, c.Title, c.Visibility, openDate, []string(c.Senders), []string(c.Receivers), len(c.Images))
}
