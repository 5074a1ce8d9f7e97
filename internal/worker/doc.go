// Package worker выполняет runs: подхватывает их из очереди RabbitMQ
// (с polling-fallback по БД), загружает датасеты, прогоняет граф
// через engine и сохраняет результаты и статусы узлов.
package worker
