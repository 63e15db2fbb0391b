package task

// DeleteAllTagsArgs strips every metadata tag from the target. Passed as
// the optional arguments of a write; NewWriteTask treats it as
// deletion-only for the empty-file no-op check.
var DeleteAllTagsArgs = []string{"-all="}
