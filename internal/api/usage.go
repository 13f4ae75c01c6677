package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const usageHTML = `<!DOCTYPE html>
<html lang="zh">
<head><meta charset="utf-8"><title>novelapi</title></head>
<body>
<h1>novelapi</h1>
<ul>
<li><code>GET /search?query=关键词</code> bqxs520 搜索 (同 /bqxs520/search)</li>
<li><code>GET /detail?book_id=1_2_3</code> bqxs520 书籍详情 (同 /bqxs520/detail)</li>
<li><code>GET /69hsz/search?keyword=关键词</code> 69hsz 搜索 (成功时 c 为字符串 "200", m 为 "请求成功")</li>
<li><code>GET /to?url=图片地址&amp;options={"Referer":"..."}</code> AVIF 转 PNG</li>
<li><code>GET /ffmpeg-version</code> FFmpeg 版本</li>
<li><code>GET /content2?chapter=章节</code> 提取章节字体</li>
<li><code>POST /upload</code> 上传文件到 GitHub (repo_name, branch, commit_message, access_token, file)</li>
<li><code>GET /health</code></li>
</ul>
</body>
</html>
`

func usage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(usageHTML))
}
