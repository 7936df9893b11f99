package bril

import (
	"encoding/json"
	"fmt"
)

// The wire format is open-ended: tools must preserve fields they do not
// understand on both items and functions. Each shape therefore decodes
// twice — once into a typed shadow struct for the known fields, once
// into a raw map to capture the rest.

var instrKnown = map[string]bool{
	"op": true, "dest": true, "type": true, "args": true,
	"funcs": true, "labels": true, "value": true,
}

func (in *Instruction) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Op     string          `json:"op"`
		Dest   string          `json:"dest"`
		Type   Type            `json:"type"`
		Args   []string        `json:"args"`
		Funcs  []string        `json:"funcs"`
		Labels []string        `json:"labels"`
		Value  json.RawMessage `json:"value"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.Op = s.Op
	in.Dest = s.Dest
	in.Type = s.Type
	in.Args = s.Args
	in.Funcs = s.Funcs
	in.Labels = s.Labels
	in.Value = s.Value
	for k, v := range raw {
		if !instrKnown[k] {
			if in.Other == nil {
				in.Other = make(map[string]json.RawMessage)
			}
			in.Other[k] = v
		}
	}
	return nil
}

func (in Instruction) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, 7+len(in.Other))
	m["op"], _ = json.Marshal(in.Op)
	if in.Dest != "" {
		m["dest"], _ = json.Marshal(in.Dest)
	}
	if in.Type != "" {
		m["type"], _ = json.Marshal(in.Type)
	}
	if in.Args != nil {
		m["args"], _ = json.Marshal(in.Args)
	}
	if in.Funcs != nil {
		m["funcs"], _ = json.Marshal(in.Funcs)
	}
	if in.Labels != nil {
		m["labels"], _ = json.Marshal(in.Labels)
	}
	if len(in.Value) > 0 {
		m["value"] = in.Value
	}
	for k, v := range in.Other {
		m[k] = v
	}
	return json.Marshal(m)
}

func (lb *Label) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name, ok := raw["label"]
	if !ok {
		return fmt.Errorf("label item missing label field")
	}
	if err := json.Unmarshal(name, &lb.Label); err != nil {
		return err
	}
	for k, v := range raw {
		if k != "label" {
			if lb.Other == nil {
				lb.Other = make(map[string]json.RawMessage)
			}
			lb.Other[k] = v
		}
	}
	return nil
}

func (lb Label) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, 1+len(lb.Other))
	m["label"], _ = json.Marshal(lb.Label)
	for k, v := range lb.Other {
		m[k] = v
	}
	return json.Marshal(m)
}

// An item is an instruction when it carries an op, a label otherwise.
func (it *Item) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["op"]; ok {
		var in Instruction
		if err := json.Unmarshal(data, &in); err != nil {
			return err
		}
		it.Instr = &in
		return nil
	}
	if _, ok := probe["label"]; ok {
		var lb Label
		if err := json.Unmarshal(data, &lb); err != nil {
			return err
		}
		it.Label = &lb
		return nil
	}
	return fmt.Errorf("item is neither a label nor an instruction")
}

func (it Item) MarshalJSON() ([]byte, error) {
	if it.Label != nil {
		return json.Marshal(it.Label)
	}
	if it.Instr != nil {
		return json.Marshal(it.Instr)
	}
	return nil, fmt.Errorf("empty item")
}

var funcKnown = map[string]bool{
	"name": true, "args": true, "type": true, "instrs": true,
}

func (f *Function) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name   string    `json:"name"`
		Args   []FuncArg `json:"args"`
		Type   Type      `json:"type"`
		Instrs []Item    `json:"instrs"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = s.Name
	f.Args = s.Args
	f.Type = s.Type
	f.Instrs = s.Instrs
	for k, v := range raw {
		if !funcKnown[k] {
			if f.Other == nil {
				f.Other = make(map[string]json.RawMessage)
			}
			f.Other[k] = v
		}
	}
	return nil
}

func (f Function) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, 4+len(f.Other))
	m["name"], _ = json.Marshal(f.Name)
	if f.Args != nil {
		m["args"], _ = json.Marshal(f.Args)
	}
	if f.Type != "" {
		m["type"], _ = json.Marshal(f.Type)
	}
	if f.Instrs == nil {
		f.Instrs = []Item{}
	}
	m["instrs"], _ = json.Marshal(f.Instrs)
	for k, v := range f.Other {
		m[k] = v
	}
	return json.Marshal(m)
}
