package service

// LatestPostsKey is the aggregate feed key. It is only ever invalidated here.
const LatestPostsKey = "posts:latest"

// PostKey is the cache key of a single post.
func PostKey(id string) string { return "post:" + id }
