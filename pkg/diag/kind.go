package diag

// Kind enumerates every structured diagnostic the compiler core can
// report. Rendering text for a Kind is deliberately left to an external
// consumer (see spec §7); this package only carries the structured value.
type Kind uint16

const (
	InternalCompilerError Kind = iota

	// Lexical.
	InvalidChar
	UnterminatedComment
	UnterminatedStringLiteral
	InvalidFilename
	IntegerLiteralTooBig
	FloatLiteralTooBig

	// Parse.
	ExpectedToken
	ExpectedWord
	ExpectedWords
	ExpectedCommand
	ExpectedRequireCommand
	ExpectedArgument
	ExpectedIdentifier
	ExpectedInteger
	ExpectedFloat
	ExpectedTextLabel
	ExpectedLabel
	ExpectedString
	ExpectedInputInt
	ExpectedInputFloat
	ExpectedInputOpt
	ExpectedVariable
	ExpectedSubscript
	ExpectedVarnameAfterDollar
	ExpectedGvarGotLvar
	ExpectedLvarGotGvar
	ExpectedConditionalExpression
	ExpectedConditionalOperator
	ExpectedAssignmentOperator
	ExpectedTernaryOperator
	UnexpectedSpecialName
	InvalidExpression
	InvalidExpressionUnassociative
	CannotNestScopes
	CannotMixAndor
	CannotUseStringConstantHere
	TooManyConditions
	TooFewArguments
	TooManyArguments
	ExpectedMissionStartAtTop

	// Declaration.
	DuplicateLabel
	DuplicateVarGlobal
	DuplicateVarInScope
	DuplicateVarLvar
	DuplicateVarTimer
	DuplicateVarStringConstant
	DuplicateScriptName
	VarDeclOutsideOfScope
	VarDeclSubscriptMustBeLiteral
	VarDeclSubscriptMustBeNonzero

	// Resolution.
	UndefinedCommand
	UndefinedLabel
	UndefinedVariable

	// Typing.
	VarTypeMismatch
	VarEntityTypeMismatch
	AlternatorMismatch

	// Subscript.
	SubscriptMustBePositive
	SubscriptOutOfRange
	SubscriptButVarIsNotArray
	SubscriptVarMustBeInt
	SubscriptVarMustNotBeArray

	// Target-scope (START_NEW_SCRIPT).
	TargetLabelNotWithinScope
	TargetScopeNotEnoughVars
	TargetVarTypeMismatch
	TargetVarEntityTypeMismatch

	// Codegen.
	CodegenTargetDoesNotSupportCommand
	CodegenLabelRefAcrossSegments
	CodegenLabelAtLocalZeroOffset
)

// String renders the symbolic name of a Kind, used as a stable identifier
// in tests and JSON dumps; it is not the human-facing message (see §7 —
// rendering is external).
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown_diagnostic"
}

var kindNames = map[Kind]string{
	InternalCompilerError:              "internal_compiler_error",
	InvalidChar:                        "invalid_char",
	UnterminatedComment:                "unterminated_comment",
	UnterminatedStringLiteral:          "unterminated_string_literal",
	InvalidFilename:                    "invalid_filename",
	IntegerLiteralTooBig:               "integer_literal_too_big",
	FloatLiteralTooBig:                 "float_literal_too_big",
	ExpectedToken:                      "expected_token",
	ExpectedWord:                       "expected_word",
	ExpectedWords:                      "expected_words",
	ExpectedCommand:                    "expected_command",
	ExpectedRequireCommand:             "expected_require_command",
	ExpectedArgument:                   "expected_argument",
	ExpectedIdentifier:                 "expected_identifier",
	ExpectedInteger:                    "expected_integer",
	ExpectedFloat:                      "expected_float",
	ExpectedTextLabel:                  "expected_text_label",
	ExpectedLabel:                      "expected_label",
	ExpectedString:                     "expected_string",
	ExpectedInputInt:                   "expected_input_int",
	ExpectedInputFloat:                 "expected_input_float",
	ExpectedInputOpt:                   "expected_input_opt",
	ExpectedVariable:                   "expected_variable",
	ExpectedSubscript:                  "expected_subscript",
	ExpectedVarnameAfterDollar:         "expected_varname_after_dollar",
	ExpectedGvarGotLvar:                "expected_gvar_got_lvar",
	ExpectedLvarGotGvar:                "expected_lvar_got_gvar",
	ExpectedConditionalExpression:      "expected_conditional_expression",
	ExpectedConditionalOperator:        "expected_conditional_operator",
	ExpectedAssignmentOperator:         "expected_assignment_operator",
	ExpectedTernaryOperator:            "expected_ternary_operator",
	UnexpectedSpecialName:              "unexpected_special_name",
	InvalidExpression:                  "invalid_expression",
	InvalidExpressionUnassociative:     "invalid_expression_unassociative",
	CannotNestScopes:                   "cannot_nest_scopes",
	CannotMixAndor:                     "cannot_mix_andor",
	CannotUseStringConstantHere:        "cannot_use_string_constant_here",
	TooManyConditions:                  "too_many_conditions",
	TooFewArguments:                    "too_few_arguments",
	TooManyArguments:                   "too_many_arguments",
	ExpectedMissionStartAtTop:          "expected_mission_start_at_top",
	DuplicateLabel:                     "duplicate_label",
	DuplicateVarGlobal:                 "duplicate_var_global",
	DuplicateVarInScope:                "duplicate_var_in_scope",
	DuplicateVarLvar:                   "duplicate_var_lvar",
	DuplicateVarTimer:                  "duplicate_var_timer",
	DuplicateVarStringConstant:         "duplicate_var_string_constant",
	DuplicateScriptName:                "duplicate_script_name",
	VarDeclOutsideOfScope:              "var_decl_outside_of_scope",
	VarDeclSubscriptMustBeLiteral:      "var_decl_subscript_must_be_literal",
	VarDeclSubscriptMustBeNonzero:      "var_decl_subscript_must_be_nonzero",
	UndefinedCommand:                   "undefined_command",
	UndefinedLabel:                     "undefined_label",
	UndefinedVariable:                  "undefined_variable",
	VarTypeMismatch:                    "var_type_mismatch",
	VarEntityTypeMismatch:              "var_entity_type_mismatch",
	AlternatorMismatch:                 "alternator_mismatch",
	SubscriptMustBePositive:            "subscript_must_be_positive",
	SubscriptOutOfRange:                "subscript_out_of_range",
	SubscriptButVarIsNotArray:          "subscript_but_var_is_not_array",
	SubscriptVarMustBeInt:              "subscript_var_must_be_int",
	SubscriptVarMustNotBeArray:         "subscript_var_must_not_be_array",
	TargetLabelNotWithinScope:          "target_label_not_within_scope",
	TargetScopeNotEnoughVars:           "target_scope_not_enough_vars",
	TargetVarTypeMismatch:              "target_var_type_mismatch",
	TargetVarEntityTypeMismatch:        "target_var_entity_type_mismatch",
	CodegenTargetDoesNotSupportCommand: "codegen_target_does_not_support_command",
	CodegenLabelRefAcrossSegments:      "codegen_label_ref_across_segments",
	CodegenLabelAtLocalZeroOffset:      "codegen_label_at_local_zero_offset",
}
