package command

import (
	"errors"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/editor"
)

// Op names an editor command.
type Op string

const (
	OpSelect              Op = "select"
	OpUpdateID            Op = "update_id"
	OpUpdateLabel         Op = "update_label"
	OpUpdateAttributes    Op = "update_attributes"
	OpUpdateStyle         Op = "update_style"
	OpDelete              Op = "delete"
	OpDuplicate           Op = "duplicate"
	OpInsert              Op = "insert"
	OpDrop                Op = "drop"
	OpSetChildren         Op = "set_children"
	OpSaveAsTemplate      Op = "save_as_template"
	OpRenameTemplate      Op = "rename_template"
	OpEditMaster          Op = "edit_master"
	OpEditMasterFromStub  Op = "edit_master_from_stub"
	OpFinishEditingMaster Op = "finish_editing_master"
	OpDetach              Op = "detach"
	OpDeleteTemplate      Op = "delete_template"
	OpUndo                Op = "undo"
	OpRedo                Op = "redo"
)

// ErrUnknownOp is returned for an op outside the known set.
var ErrUnknownOp = errors.New("unknown command op")

// ErrMissingField is returned when a command lacks a field its op needs.
var ErrMissingField = errors.New("missing command field")

// Command is the serialisable form of one editor command.
// Only the fields relevant to Op are read.
type Command struct {
	Op         Op              `json:"op" yaml:"op"`
	ID         string          `json:"id,omitempty" yaml:"id,omitempty"`
	NewID      string          `json:"newId,omitempty" yaml:"newId,omitempty"`
	Label      string          `json:"label,omitempty" yaml:"label,omitempty"`
	Target     string          `json:"target,omitempty" yaml:"target,omitempty"`
	Position   domain.Position `json:"position,omitempty" yaml:"position,omitempty"`
	Zone       domain.Zone     `json:"zone,omitempty" yaml:"zone,omitempty"`
	Node       *domain.Node    `json:"node,omitempty" yaml:"node,omitempty"`
	Children   []domain.Node   `json:"children,omitempty" yaml:"children,omitempty"`
	Attributes map[string]any  `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Key        string          `json:"key,omitempty" yaml:"key,omitempty"`
	Value      any             `json:"value,omitempty" yaml:"value,omitempty"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Global     bool            `json:"global,omitempty" yaml:"global,omitempty"`
	TemplateID string          `json:"templateId,omitempty" yaml:"templateId,omitempty"`
}

// Result describes what a command did.
type Result struct {
	Op Op `json:"op"`
	// ID is the node the command produced or focused (new node, detached copy, renamed id).
	ID       string               `json:"id,omitempty"`
	Template *domain.Template     `json:"template,omitempty"`
	Diff     *domain.DocumentDiff `json:"diff,omitempty"`
	Selected string               `json:"selected,omitempty"`
	Scope    string               `json:"scope"`
}

// Changed reports whether the document content changed.
func (r Result) Changed() bool {
	return r.Diff != nil
}

// Apply runs cmd against ed and reports the resulting document diff.
func Apply(ed *editor.Editor, cmd Command) (Result, error) {
	before := ed.Document()
	res, err := dispatch(ed, cmd)
	res.Op = cmd.Op
	res.Diff = domain.Diff(before, ed.Document())
	res.Selected = ed.Selected()
	res.Scope = ed.Scope()
	if err != nil {
		return res, fmt.Errorf("%s: %w", cmd.Op, err)
	}
	return res, nil
}

// ApplyAll runs cmds in order and stops at the first error.
// The results of the commands applied so far are returned with it.
func ApplyAll(ed *editor.Editor, cmds []Command) ([]Result, error) {
	results := make([]Result, 0, len(cmds))
	for i, cmd := range cmds {
		res, err := Apply(ed, cmd)
		if err != nil {
			return results, fmt.Errorf("command %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func dispatch(ed *editor.Editor, cmd Command) (Result, error) {
	var res Result
	var err error

	switch cmd.Op {
	case OpSelect:
		ed.Select(cmd.ID)
		res.ID = ed.Selected()
	case OpUpdateID:
		if err = need(cmd.ID, "id"); err == nil {
			err = ed.UpdateID(cmd.ID, cmd.NewID)
			res.ID = cmd.NewID
		}
	case OpUpdateLabel:
		if err = need(cmd.ID, "id"); err == nil {
			ed.UpdateLabel(cmd.ID, cmd.Label)
			res.ID = cmd.ID
		}
	case OpUpdateAttributes:
		if err = need(cmd.ID, "id"); err == nil {
			ed.UpdateAttributes(cmd.ID, cmd.Attributes)
			res.ID = cmd.ID
		}
	case OpUpdateStyle:
		if err = need(cmd.ID, "id"); err == nil {
			err = need(cmd.Key, "key")
		}
		if err == nil {
			ed.UpdateStyleAttribute(cmd.ID, cmd.Key, cmd.Value)
			res.ID = cmd.ID
		}
	case OpDelete:
		if err = need(cmd.ID, "id"); err == nil {
			err = ed.Delete(cmd.ID)
		}
	case OpDuplicate:
		if err = need(cmd.ID, "id"); err == nil {
			res.ID, err = ed.Duplicate(cmd.ID)
		}
	case OpInsert:
		if cmd.Node == nil {
			err = fmt.Errorf("node: %w", ErrMissingField)
			break
		}
		pos := cmd.Position
		if pos == "" {
			pos = domain.PositionInside
		}
		res.ID, err = ed.Insert(targetOrRoot(cmd.Target), pos, *cmd.Node)
	case OpDrop:
		res.ID, err = ed.Drop(targetOrRoot(cmd.Target), cmd.Zone, editor.DropPayload{NodeID: cmd.ID, Node: cmd.Node})
	case OpSetChildren:
		if err = need(cmd.ID, "id"); err == nil {
			err = ed.SetChildren(cmd.ID, cmd.Children)
			res.ID = cmd.ID
		}
	case OpSaveAsTemplate:
		if err = need(cmd.ID, "id"); err == nil {
			var tpl domain.Template
			tpl, err = ed.SaveAsTemplate(cmd.ID, cmd.Name, cmd.Global)
			if err == nil {
				res.Template = &tpl
				res.ID = cmd.ID
			}
		}
	case OpRenameTemplate:
		if err = need(cmd.TemplateID, "templateId"); err == nil {
			err = ed.RenameTemplate(cmd.TemplateID, cmd.Name)
		}
	case OpEditMaster:
		if err = need(cmd.TemplateID, "templateId"); err == nil {
			err = ed.EditMaster(cmd.TemplateID)
		}
	case OpEditMasterFromStub:
		if err = need(cmd.ID, "id"); err == nil {
			err = ed.EditMasterFromStub(cmd.ID)
		}
	case OpFinishEditingMaster:
		err = ed.FinishEditingMaster()
	case OpDetach:
		if err = need(cmd.ID, "id"); err == nil {
			var n domain.Node
			n, err = ed.Detach(cmd.ID)
			res.ID = n.ID
		}
	case OpDeleteTemplate:
		if err = need(cmd.TemplateID, "templateId"); err == nil {
			ed.DeleteTemplate(cmd.TemplateID)
		}
	case OpUndo:
		ed.Undo()
	case OpRedo:
		ed.Redo()
	default:
		err = fmt.Errorf("%q: %w", cmd.Op, ErrUnknownOp)
	}
	return res, err
}

func need(value, field string) error {
	if value == "" {
		return fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	return nil
}

func targetOrRoot(target string) string {
	if target == "" {
		return domain.RootTarget
	}
	return target
}
