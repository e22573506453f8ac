package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AdminSessionKey returns the cache key holding the active admin session JTI.
func (r *CacheKeyStruct) AdminSessionKey(username string) string {
	return fmt.Sprintf("admin:%s:session", username)
}

// IPOngoingExamKey returns the cache key for the IP-guard verdict of an IP.
// The value is "1" when some student bound to the IP has a running exam,
// "0" when none does.
func (r *CacheKeyStruct) IPOngoingExamKey(ip string) string {
	return fmt.Sprintf("ip:%s:ongoing_exam", ip)
}

var CacheKey = NewCacheKeyStruct()
