package pipeline

import "reflect"

const redactedValue = "******"

// payloadFields 把请求转为日志字段；带 `log:"-"` 标签的字段以掩码代替
// 匿名嵌入的结构体字段展开到同一层
func payloadFields(req interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	v := reflect.ValueOf(req)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		out["value"] = req
		return out
	}
	collectFields(v, out)
	return out
}

func collectFields(v reflect.Value, out map[string]interface{}) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(v.Field(i), out)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if f.Tag.Get("log") == "-" {
			if !v.Field(i).IsZero() {
				out[f.Name] = redactedValue
			}
			continue
		}
		out[f.Name] = v.Field(i).Interface()
	}
}
