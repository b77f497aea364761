package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/hyperpolymath/betlang/internal/ast"
)

// canonicalModuleAlias breaks the MarshalBinary/UnmarshalBinary
// recursion the same way the teacher's canonicalPlanAlias does: a
// distinct named type with the same underlying fields has no
// MarshalBinary method of its own, so cbor.Marshal falls through to
// its default struct encoding instead of calling back into ours.
type canonicalModuleAlias CanonicalModule

// MarshalBinary implements encoding.BinaryMarshaler for CanonicalModule
// using canonical CBOR (RFC 8949 §4.2.1 deterministic encoding), so two
// semantically identical modules always emit byte-identical artifacts.
func (c CanonicalModule) MarshalBinary() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encode mode: %w", err)
	}
	alias := canonicalModuleAlias(c)
	return mode.Marshal(alias)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for CanonicalModule.
func (c *CanonicalModule) UnmarshalBinary(data []byte) error {
	var alias canonicalModuleAlias
	if err := cbor.Unmarshal(data, &alias); err != nil {
		return err
	}
	*c = CanonicalModule(alias)
	return nil
}

// EmitAST serializes a parsed Module to the `.betc` canonical CBOR
// artifact: a debugging/inspection format, not an incremental
// compilation cache (that remains a Non-goal). The AST is flattened
// first into the CanonicalModule discriminator-tagged shadow tree,
// since CBOR — like most serialization libraries — cannot encode a Go
// interface-typed field without one.
func EmitAST(module *ast.Module) ([]byte, error) {
	if module == nil {
		return nil, fmt.Errorf("cache: cannot emit a nil module")
	}
	canon := ToModule(module)
	data, err := canon.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("cache: emit ast: %w", err)
	}
	return data, nil
}

// DecodeAST reconstitutes a Module from a `.betc` artifact produced by
// EmitAST. Round-tripping keeps every node kind the current grammar
// produces, and the spans of the module, its expressions and its
// patterns, so a tool reading the decoded tree can still point back at
// source positions. Item spans and type-annotation spans are not
// stored in the artifact; decoded items and annotations carry zero
// spans.
func DecodeAST(data []byte) (*ast.Module, error) {
	var canon CanonicalModule
	if err := canon.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("cache: decode ast: %w", err)
	}
	return FromModule(canon), nil
}
