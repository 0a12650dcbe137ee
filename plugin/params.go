package plugin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// ParseParamsFromStruct 从结构体的 tag 解析参数定义
// 支持的 tag: name, required, default, description
//
// 示例:
//
//	type CloneParams struct {
//	    Method   string `param:"name=method,required=false,default=CloneProperties,description=生成的方法名"`
//	    Conflict string `param:"name=conflict,required=false,default=allow,description=同名字段处理策略"`
//	}
//
//	params := plugin.ParseParamsFromStruct(CloneParams{})
func ParseParamsFromStruct(v any) []ParamDef {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return nil
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	var params []ParamDef
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("param")
		if tag == "" {
			continue
		}
		if def := parseParamTag(tag); def.Name != "" {
			params = append(params, def)
		}
	}
	return params
}

// parseParamTag 解析 param tag 字符串
// 格式: name=xxx,required=true,default=xxx,description=xxx
func parseParamTag(tag string) ParamDef {
	var param ParamDef
	for key, value := range splitTag(tag) {
		switch key {
		case "name":
			param.Name = value
		case "required":
			param.Required = cast.ToBool(value)
		case "default":
			param.Default = value
		case "description":
			param.Description = value
		}
	}
	return param
}

// splitTag 分割 tag 字符串为键值对
// 格式: key1=value1,key2=value2，反斜杠转义下一个字符
func splitTag(tag string) map[string]string {
	result := make(map[string]string)

	var key, value strings.Builder
	inKey, escaped := true, false
	cur := func() *strings.Builder {
		if inKey {
			return &key
		}
		return &value
	}
	flush := func() {
		if key.Len() > 0 {
			result[key.String()] = value.String()
		}
		key.Reset()
		value.Reset()
		inKey = true
	}

	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		switch {
		case escaped:
			cur().WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '=' && inKey:
			inKey = false
		case ch == ',':
			flush()
		default:
			cur().WriteByte(ch)
		}
	}
	flush()

	return result
}

// ParseAnnotationParams 将注解的参数解析到目标结构体中
// target 必须是结构体指针；注解中缺失的参数使用 paramDefs 中的默认值，
// 必填参数缺失时返回错误
//
// 示例:
//
//	var params CloneParams
//	err := plugin.ParseAnnotationParams(annotation, &params, gen.ParamDefs())
func ParseAnnotationParams(annotation *Annotation, target any, paramDefs []ParamDef) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("参数目标必须是非空指针，实际为 %T", target)
	}
	val = val.Elem()
	typ := val.Type()
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("参数目标必须指向结构体，实际为 %s", typ)
	}

	defMap := make(map[string]ParamDef, len(paramDefs))
	for _, def := range paramDefs {
		defMap[def.Name] = def
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		tag := field.Tag.Get("param")
		if tag == "" {
			continue
		}
		name := parseParamTag(tag).Name
		if name == "" {
			continue
		}

		def, hasDef := defMap[name]
		value, ok := "", false
		if annotation != nil {
			value, ok = annotation.Params[strings.ToLower(name)]
		}
		if !ok || value == "" {
			if hasDef && def.Required && !ok {
				return fmt.Errorf("缺少必填参数 %s", name)
			}
			if hasDef {
				value = def.Default
			}
		}

		if err := setFieldValue(fieldVal, value); err != nil {
			return fmt.Errorf("参数 %s: %w", name, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值，支持 string、整数、bool、浮点数
func setFieldValue(field reflect.Value, value string) error {
	if value == "" && field.Kind() != reflect.String {
		field.SetZero()
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(value)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(value)
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Bool:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		field.SetBool(v)
	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	default:
		return fmt.Errorf("不支持的字段类型 %s", field.Kind())
	}
	return nil
}
