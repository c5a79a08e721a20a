package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefix namespaces every key written by the store.
	KeyPrefix = "bh:"
	// KeyPrefixSessions is the prefix of per-user session index sets.
	KeyPrefixSessions = KeyPrefix + "sessions:"
	// KeyUserEmails maps lower-cased emails to user ids.
	KeyUserEmails = KeyPrefix + "users:email"
)

func userScope(userID string) string {
	return KeyPrefix + "u:" + userID + ":"
}

// BookmarkKey returns the key holding one bookmark row.
func BookmarkKey(userID, id string) string {
	return userScope(userID) + "bookmark:" + id
}

// BookmarksKey returns the set of a user's bookmark ids.
func BookmarksKey(userID string) string {
	return userScope(userID) + "bookmarks"
}

// BookmarkTagsKey returns the set of tag ids linked to a bookmark.
func BookmarkTagsKey(userID, bookmarkID string) string {
	return userScope(userID) + "bookmark:" + bookmarkID + ":tags"
}

func TagKey(userID, id string) string {
	return userScope(userID) + "tag:" + id
}

func TagsKey(userID string) string {
	return userScope(userID) + "tags"
}

// TagNamesKey is a hash of lower-cased tag name -> tag id, enforcing
// case-insensitive uniqueness.
func TagNamesKey(userID string) string {
	return userScope(userID) + "tags:names"
}

// TagBookmarksKey returns the set of bookmark ids linked to a tag.
func TagBookmarksKey(userID, tagID string) string {
	return userScope(userID) + "tag:" + tagID + ":bookmarks"
}

func RuleKey(userID, id string) string {
	return userScope(userID) + "rule:" + id
}

func RulesKey(userID string) string {
	return userScope(userID) + "rules"
}

func SettingsKey(userID string) string {
	return userScope(userID) + "settings"
}

func UserKey(id string) string {
	return KeyPrefix + "user:" + id
}

func SessionKey(token string) string {
	return KeyPrefix + "session:" + token
}

// UserSessionsKey returns the set of session tokens issued to a user.
func UserSessionsKey(userID string) string {
	return KeyPrefixSessions + userID
}

// ExtractSessionsUserID extracts the user id from a session index key.
func ExtractSessionsUserID(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixSessions) || len(key) == len(KeyPrefixSessions) {
		return "", fmt.Errorf("invalid sessions key: %s", key)
	}
	return key[len(KeyPrefixSessions):], nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
