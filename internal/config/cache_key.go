package config

import "fmt"

type CacheKeyStruct struct{}

// GroupActivityChannel returns the Redis PubSub channel carrying one group's events.
func (CacheKeyStruct) GroupActivityChannel(groupID int) string {
	return fmt.Sprintf("study_group:%d:activity", groupID)
}

var CacheKey = CacheKeyStruct{}
