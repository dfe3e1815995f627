package blsct

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/takakv/blsct/util"
)

// Action is the token program an output's vData invokes.
type Action int32

const (
	ActionNoProgram Action = iota
	ActionErr
	ActionCreateToken
	ActionMint
	ActionStopMint
	ActionBurn
	ActionRegisterName
	ActionUpdateNameFirst
	ActionUpdateName
	ActionRenewName
)

var actionNames = [...]string{
	"NO_PROGRAM", "ERR", "CREATE_TOKEN", "MINT", "STOP_MINT", "BURN",
	"REGISTER_NAME", "UPDATE_NAME_FIRST", "UPDATE_NAME", "RENEW_NAME",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// encryptedMemoMarker starts the vData of an output whose memo did not fit
// in its range proof.
const encryptedMemoMarker = 0xf0

// VData is the decoded program payload of an output.
type VData struct {
	Action Action

	// Set for ActionCreateToken.
	Key       []byte
	Name      []byte
	Version   uint64
	Code      []byte
	MaxSupply uint64
}

// ParseVData decodes a program payload. Only CREATE_TOKEN carries arguments.
func ParseVData(b []byte) (VData, error) {
	var v VData
	r := bytes.NewReader(b)

	var action int32
	if err := binary.Read(r, binary.LittleEndian, &action); err != nil {
		return v, errors.Wrap(err, "read action")
	}
	v.Action = Action(action)
	if v.Action != ActionCreateToken {
		return v, nil
	}

	var err error
	if v.Key, err = util.ReadVarBytes(r); err != nil {
		return v, errors.Wrap(err, "read token key")
	}
	if v.Name, err = util.ReadVarBytes(r); err != nil {
		return v, errors.Wrap(err, "read token name")
	}
	if v.Version, err = readUint64(r); err != nil {
		return v, errors.Wrap(err, "read token version")
	}
	if v.Code, err = util.ReadVarBytes(r); err != nil {
		return v, errors.Wrap(err, "read token code")
	}
	if v.MaxSupply, err = readUint64(r); err != nil {
		return v, errors.Wrap(err, "read token supply")
	}
	return v, nil
}

// AppendBinary encodes v in the layout ParseVData reads.
func (v *VData) AppendBinary(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Action))
	if v.Action != ActionCreateToken {
		return buf
	}
	buf = util.AppendVarBytes(buf, v.Key)
	buf = util.AppendVarBytes(buf, v.Name)
	buf = binary.LittleEndian.AppendUint64(buf, v.Version)
	buf = util.AppendVarBytes(buf, v.Code)
	return binary.LittleEndian.AppendUint64(buf, v.MaxSupply)
}

// isMint reports whether vData invokes MINT. Mint outputs are funded by the
// token program, not by inputs.
func isMint(vData []byte) bool {
	if len(vData) < 4 {
		return false
	}
	v, err := ParseVData(vData)
	return err == nil && v.Action == ActionMint
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
