package tui

import "github.com/zonghaoyuan/hotwords-cn/internal/hotlist"

type listLoadedMsg struct {
	channelIdx int
	list       hotlist.List
}

type listErrMsg struct {
	channelIdx int
	err        error
}
