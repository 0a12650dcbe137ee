package embeds

import "sync"

// Guarded 标准库嵌入提升的成员无法得知
// @PropertyCloner
type Guarded struct {
	sync.Mutex
	Base
}
