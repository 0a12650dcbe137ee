// Package structparse 基于 go/parser 的类型声明索引。
//
// 以包目录为单位解析所有非测试文件，记录每个类型的种类、泛型参数、
// 具名字段（含注释和标签）以及嵌入字段。嵌入字段可以通过 ParseContext.ResolveEmbed
// 解析到同包、模块内其它包或模块缓存中的类型声明；标准库类型返回 ErrStdLib。
//
// 同一个 ParseContext 内每个目录只解析一次。
package structparse
