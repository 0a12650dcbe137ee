package plugin

import "github.com/donutnomad/clonegen/internal/utils"

//go:generate mockgen -source=sink.go -destination=mock_sink_test.go -package=plugin

// Sink 接收格式化后的生成文件
type Sink interface {
	Write(path string, src []byte) error
}

// FileSink 写入本地文件系统
type FileSink struct{}

func (FileSink) Write(path string, src []byte) error {
	return utils.WriteFile(path, src)
}
