// Package codec translates chat frames to and from their JSON wire form.
//
// Message frames are encoded twice: the {from, message} record is marshalled
// on its own and carried as a string in the envelope's data field.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adwski/chat-client/backend/model"
)

var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrUnsupportedKind = errors.New("unsupported frame kind")
)

// rawEnvelope defers payload decoding until the kind is known.
type rawEnvelope struct {
	MessageType *string         `json:"messageType"`
	Data        json.RawMessage `json:"data"`
	DataArray   json.RawMessage `json:"dataArray"`
}

type innerRecord struct {
	From    *string `json:"from"`
	Message *string `json:"message"`
}

// Encode serializes f into its wire form.
func Encode(f model.Frame) ([]byte, error) {
	kind := string(f.Kind)
	env := model.Envelope{MessageType: &kind}

	switch f.Kind {
	case model.KindRegister:
		user := f.User
		env.Data = &user
	case model.KindUsers:
		env.DataArray = f.Users
		if env.DataArray == nil {
			env.DataArray = []string{}
		}
	case model.KindMessage:
		if f.Message == nil {
			return nil, fmt.Errorf("%w: message frame without record", ErrMalformedFrame)
		}
		inner, err := json.Marshal(f.Message)
		if err != nil {
			return nil, errors.Join(ErrMalformedFrame, err)
		}
		data := string(inner)
		env.Data = &data
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	b, err := json.Marshal(&env)
	if err != nil {
		return nil, errors.Join(ErrMalformedFrame, err)
	}
	return b, nil
}

// Decode parses a wire payload. Frames of unknown kind decode without error
// and report Ignored() == true; their payload is not inspected.
func Decode(b []byte) (model.Frame, error) {
	var env rawEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return model.Frame{}, errors.Join(ErrMalformedFrame, err)
	}
	if env.MessageType == nil {
		return model.Frame{}, fmt.Errorf("%w: missing messageType", ErrMalformedFrame)
	}

	f := model.Frame{Kind: model.Kind(*env.MessageType)}
	if f.Ignored() {
		return f, nil
	}

	switch f.Kind {
	case model.KindRegister:
		data, err := decodeData(env.Data, f.Kind)
		if err != nil {
			return model.Frame{}, err
		}
		f.User = data
	case model.KindUsers:
		users, err := decodeUsers(env.DataArray)
		if err != nil {
			return model.Frame{}, err
		}
		f.Users = users
	case model.KindMessage:
		data, err := decodeData(env.Data, f.Kind)
		if err != nil {
			return model.Frame{}, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return model.Frame{}, err
		}
		f.Message = rec
	}
	return f, nil
}

func decodeData(raw json.RawMessage, kind model.Kind) (string, error) {
	var data *string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return "", errors.Join(ErrMalformedFrame, fmt.Errorf("%s data: %w", kind, err))
		}
	}
	if data == nil {
		return "", fmt.Errorf("%w: %s frame without data", ErrMalformedFrame, kind)
	}
	return *data, nil
}

func decodeUsers(raw json.RawMessage) ([]string, error) {
	var items []*string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Join(ErrMalformedFrame, fmt.Errorf("users dataArray: %w", err))
		}
	}
	if items == nil {
		return nil, fmt.Errorf("%w: users frame without dataArray", ErrMalformedFrame)
	}
	users := make([]string, 0, len(items))
	for i, u := range items {
		if u == nil {
			return nil, fmt.Errorf("%w: users dataArray[%d] is null", ErrMalformedFrame, i)
		}
		users = append(users, *u)
	}
	return users, nil
}

func decodeRecord(data string) (*model.MessageRecord, error) {
	var rec innerRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, errors.Join(ErrMalformedFrame, fmt.Errorf("message record: %w", err))
	}
	if rec.From == nil || rec.Message == nil {
		return nil, fmt.Errorf("%w: message record lacks from or message", ErrMalformedFrame)
	}
	return &model.MessageRecord{From: *rec.From, Message: *rec.Message}, nil
}
