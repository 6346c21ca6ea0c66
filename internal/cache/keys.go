package cache

import "fmt"

// post:data:{post_id}
func PostKey(postID int64) string {
	return fmt.Sprintf("post:data:%d", postID)
}

// workspace:{workspace_id}:posts
func WorkspacePostsKey(workspaceID int64) string {
	return fmt.Sprintf("workspace:%d:posts", workspaceID)
}

// workspace:{workspace_id}:accounts
func WorkspaceAccountsKey(workspaceID int64) string {
	return fmt.Sprintf("workspace:%d:accounts", workspaceID)
}

// PostKeys bundles the keys touched by any post mutation.
func PostKeys(postID, workspaceID int64) []string {
	return []string{PostKey(postID), WorkspacePostsKey(workspaceID)}
}
