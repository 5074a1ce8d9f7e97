// Package nodes содержит вычислители узлов workflow-графа.
//
// Каждый вычислитель обслуживает один вид узла (source, select,
// filter, compute, merge, group_aggregate, output), stateless и
// регистрируется в Registry. DefaultRegistry возвращает реестр со
// всеми встроенными вычислителями.
package nodes
