// Package api реализует HTTP API сервиса: загрузка датасетов,
// CRUD workflows и их версий, запуск и отмена runs, расписания,
// синхронное выполнение графа и AI-планировщик.
//
// Маршрутизация — стандартный http.ServeMux с методами в шаблонах,
// ответы — единый конверт {data} / {error}.
package api
