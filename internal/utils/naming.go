package utils

import (
	"go/token"
	"strings"
	"unicode"
)

// commonInitialisms 常见首字母缩略词列表，与 GORM 保持一致
var commonInitialisms = []string{
	"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS",
	"ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP",
	"SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM",
	"XML", "XSRF", "XSS",
}

var commonInitialismsReplacer *strings.Replacer

func init() {
	replacerArgs := make([]string, 0, len(commonInitialisms)*2)
	for _, initialism := range commonInitialisms {
		// API -> Api
		replacerArgs = append(replacerArgs, initialism, strings.ToUpper(initialism[:1])+strings.ToLower(initialism[1:]))
	}
	commonInitialismsReplacer = strings.NewReplacer(replacerArgs...)
}

// ToSnakeCase 将驼峰命名转换为蛇形命名，用于输出文件名中的 $TYPE
func ToSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	value := commonInitialismsReplacer.Replace(name)

	var (
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32)
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_')
				}
				buf.WriteRune(v + 32)
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	return buf.String()
}

// LowerFirst 将首字母转换为小写
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// ReceiverName 根据类型名生成接收者名称（类型名首字母小写）
// 无法得到合法标识符时返回 fallback
func ReceiverName(typeName, fallback string) string {
	for _, r := range typeName {
		if !unicode.IsLetter(r) {
			break
		}
		name := string(unicode.ToLower(r))
		if token.IsIdentifier(name) && !token.IsKeyword(name) {
			return name
		}
		break
	}
	return fallback
}
