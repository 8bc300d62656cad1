// Package unitconf decodes the configuration blob a topology embeds in each unit.
//
// The blob is a JSON object. Only the task-id key is read; its value is
// normally a numeric string ("10") as set by the topology builder, an
// integral JSON number is accepted too.
package unitconf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cuemby/groupsched/pkg/types"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformedConf is wrapped by every decode failure
var ErrMalformedConf = errors.New("malformed unit configuration")

// Decode parses a configuration blob. An empty blob decodes to an empty document.
func Decode(conf string) (*structpb.Struct, error) {
	doc := &structpb.Struct{}
	if strings.TrimSpace(conf) == "" {
		return doc, nil
	}
	if err := protojson.Unmarshal([]byte(conf), doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConf, err)
	}
	return doc, nil
}

// TaskID extracts the task id from a configuration blob.
// ok is false when the blob carries no task id.
func TaskID(conf string) (id int, ok bool, err error) {
	doc, err := Decode(conf)
	if err != nil {
		return 0, false, err
	}

	v, present := doc.GetFields()[types.TaskIDKey]
	if !present {
		return 0, false, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, false, nil
	case *structpb.Value_StringValue:
		id, err := strconv.Atoi(kind.StringValue)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s=%q is not an integer", ErrMalformedConf, types.TaskIDKey, kind.StringValue)
		}
		return id, true, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false, fmt.Errorf("%w: %s=%v is not an integer", ErrMalformedConf, types.TaskIDKey, n)
		}
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s has unsupported type %T", ErrMalformedConf, types.TaskIDKey, kind)
	}
}

// Encode builds a configuration blob carrying the given task id, as a topology builder would
func Encode(taskID int, extra map[string]string) (string, error) {
	fields := map[string]any{types.TaskIDKey: strconv.Itoa(taskID)}
	for k, v := range extra {
		if k == types.TaskIDKey {
			continue
		}
		fields[k] = v
	}
	doc, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}
	data, err := protojson.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
