package domain

import "strings"

// Семейства ключей клиентского кеша
const (
	CacheFamilyPost     = "post"
	CacheFamilyComment  = "comment"
	CacheFamilyComments = "comments"
	CacheFamilyAuth     = "auth"
)

// Ключи кеша — единое место, чтобы не расползались по коду.
func CacheKeyPost(id string) string    { return CacheFamilyPost + ":" + id }
func CacheKeyComment(id string) string { return CacheFamilyComment + ":" + id }
func CacheKeyProfile() string          { return CacheFamilyAuth + ":profile" }

// params — уже нормализованная строка параметров (см. ListParams.Key)
func CacheKeyComments(postID, params string) string {
	return CacheFamilyComments + ":" + postID + ":" + params
}

// CacheKeyVoteTarget — на какой ключ влияет голос
func CacheKeyVoteTarget(t VoteTarget) string {
	if t.TargetType == TargetComment {
		return CacheKeyComment(t.TargetID)
	}
	return CacheKeyPost(t.TargetID)
}

// CacheFamilyOf — семейство ключа по первому сегменту
func CacheFamilyOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
