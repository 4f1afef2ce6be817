package scanner

// Queries capture every definition the outline cares about. Each pattern
// captures the definition node as @class, @function or @method and its
// identifier as @name. Go and Lua methods also capture their @receiver.
var Queries = map[string]string{
	"python": `
		(class_definition name: (identifier) @name) @class
		(function_definition name: (identifier) @name) @function
	`,
	"javascript": `
		(class_declaration name: (identifier) @name) @class
		(function_declaration name: (identifier) @name) @function
		(generator_function_declaration name: (identifier) @name) @function
		(method_definition name: (_) @name) @method
	`,
	"typescript": `
		(class_declaration name: (type_identifier) @name) @class
		(abstract_class_declaration name: (type_identifier) @name) @class
		(function_declaration name: (identifier) @name) @function
		(generator_function_declaration name: (identifier) @name) @function
		(method_definition name: (_) @name) @method
	`,
	"go": `
		(type_spec name: (type_identifier) @name) @class
		(function_declaration name: (identifier) @name) @function
		(method_declaration receiver: (parameter_list) @receiver name: (field_identifier) @name) @method
	`,
	"lua": `
		(function_declaration name: (identifier) @name) @function
		(function_declaration
			name: (dot_index_expression table: (_) @receiver field: (identifier) @name)) @method
		(function_declaration
			name: (method_index_expression table: (_) @receiver method: (identifier) @name)) @method
	`,
	"zig": `
		(function_declaration (symbol_declaration name: (identifier) @name)) @function
	`,
}

func init() {
	Queries["tsx"] = Queries["typescript"]
}
