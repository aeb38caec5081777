package render

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pretty walks a lowered document and renders it as 2-space-indented shell
// text: binary as {"$binary": "<b64>", "$type": "03"}, dates as {"$date":
// <epochMillis>}, ObjectIds and regexes in their native mongo shell literal
// forms. Long integers render as plain numbers unless strictNumberLong
// requests the {"$numberLong": "N"} wrapped form.
func pretty(v interface{}, depth int, strictNumberLong bool) (string, error) {
	switch val := v.(type) {
	case bson.D:
		return prettyDoc(val, depth, strictNumberLong)
	case bson.A:
		return prettyArray(val, depth, strictNumberLong)
	case []interface{}:
		return prettyArray(bson.A(val), depth, strictNumberLong)
	case []bson.D:
		arr := make(bson.A, 0, len(val))
		for _, d := range val {
			arr = append(arr, d)
		}
		return prettyArray(arr, depth, strictNumberLong)
	case string:
		return strconv.Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "null", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		if strictNumberLong {
			return fmt.Sprintf(`{"$numberLong": %q}`, strconv.FormatInt(val, 10)), nil
		}
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case primitive.Regex:
		return "/" + val.Pattern + "/" + val.Options, nil
	case primitive.ObjectID:
		return fmt.Sprintf("ObjectId(%q)", val.Hex()), nil
	case primitive.DateTime:
		return fmt.Sprintf(`{"$date": %d}`, int64(val)), nil
	case primitive.Binary:
		return fmt.Sprintf(`{"$binary": %q, "$type": "%02x"}`, base64.StdEncoding.EncodeToString(val.Data), val.Subtype), nil
	default:
		return "", fmt.Errorf("render: unsupported value type %T", v)
	}
}

func prettyDoc(doc bson.D, depth int, strictNumberLong bool) (string, error) {
	if len(doc) == 0 {
		return "{}", nil
	}
	indent := strings.Repeat("  ", depth+1)
	closeIndent := strings.Repeat("  ", depth)

	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range doc {
		val, err := pretty(e.Value, depth+1, strictNumberLong)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s%q: %s", indent, e.Key, val)
		if i < len(doc)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s}", closeIndent)
	return b.String(), nil
}

func prettyArray(arr bson.A, depth int, strictNumberLong bool) (string, error) {
	if len(arr) == 0 {
		return "[]", nil
	}
	indent := strings.Repeat("  ", depth+1)
	closeIndent := strings.Repeat("  ", depth)

	var b strings.Builder
	b.WriteString("[\n")
	for i, v := range arr {
		val, err := pretty(v, depth+1, strictNumberLong)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s%s", indent, val)
		if i < len(arr)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s]", closeIndent)
	return b.String(), nil
}
