// Package engine реализует выполнение workflow-графа над таблицами.
//
// Граф — DAG узлов-преобразований (source, select, filter, compute,
// merge, group_aggregate, output). Перед выполнением граф проходит
// структурную валидацию; затем Scheduler вычисляет узлы в
// детерминированном топологическом порядке, мемоизируя результаты и
// изолируя отказы: при падении узла пропускаются только его потомки,
// независимые ветки доходят до конца.
//
// Вычислители узлов регистрируются через Registry; сами реализации
// живут в пакете nodes.
package engine
