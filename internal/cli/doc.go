// Package cli реализует инструмент командной строки Tabula.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Tabula API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для загрузки датасетов и управления workflows,
// runs и schedules.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Tabula API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: tabula workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - dataset: list, upload, show, preview, delete
//   - workflow: list, create, show, update, delete, versions, publish
//   - run: list, start, show, cancel, download
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd
// и т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
