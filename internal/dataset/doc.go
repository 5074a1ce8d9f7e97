// Package dataset отвечает за файлы с данными: приём загрузок
// (xlsx, csv), вывод схемы листов, чтение листа как таблицы и
// выгрузку результатов run'ов.
package dataset
