package syntax

// Node types of the tree-sitter bash grammar that the analyzer cares about.
const (
	NodeProgram            = "program"
	NodeComment            = "comment"
	NodeFunctionDefinition = "function_definition"
	NodeVariableAssignment = "variable_assignment"
	NodeVariableName       = "variable_name"
	NodeSubscript          = "subscript"
	NodeDeclarationCommand = "declaration_command"
	NodeForStatement       = "for_statement"
	NodeCommandName        = "command_name"
	NodeWord               = "word"
	NodeError              = "ERROR"
)
